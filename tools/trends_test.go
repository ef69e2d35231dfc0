package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mcpCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// newMCPServer serves /mcp/tools/call with the given content payload and
// /healthz with 200, capturing the last tool call.
func newMCPServer(t *testing.T, content any) (*httptest.Server, *mcpCall) {
	t.Helper()

	captured := &mcpCall{}
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools/call", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"content": content}))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, captured
}

// -----------------------------------------------------------------------
// MCP client
// -----------------------------------------------------------------------

func TestTrendingTermsRequestShape(t *testing.T) {
	server, captured := newMCPServer(t, []map[string]any{})
	client := NewMCPClient(server.URL)

	_, err := client.TrendingTerms(context.Background(), "ID")

	require.NoError(t, err)
	assert.Equal(t, "get_trending_terms", captured.Name)
	assert.Equal(t, map[string]any{"geo": "ID", "full_data": false}, captured.Arguments)
}

func TestTrendingTermsDefaultsGeo(t *testing.T) {
	server, captured := newMCPServer(t, []map[string]any{})
	client := NewMCPClient(server.URL)

	_, err := client.TrendingTerms(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "US", captured.Arguments["geo"])
}

func TestNewsByKeywordRequestShape(t *testing.T) {
	server, captured := newMCPServer(t, []map[string]any{})
	client := NewMCPClient(server.URL)

	_, err := client.NewsByKeyword(context.Background(), "semiconductors")

	require.NoError(t, err)
	assert.Equal(t, "get_news_by_keyword", captured.Name)
	assert.Equal(t, map[string]any{
		"keyword":     "semiconductors",
		"max_results": float64(5),
		"full_data":   false,
		"summarize":   true,
	}, captured.Arguments)
}

func TestMCPBareArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"keyword": "go", "volume": 100}]`))
	}))
	t.Cleanup(server.Close)

	client := NewMCPClient(server.URL)
	trends, err := client.TrendingTerms(context.Background(), "US")

	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, "go", trends[0].Keyword)
}

func TestMCPMissingContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	t.Cleanup(server.Close)

	client := NewMCPClient(server.URL)
	trends, err := client.TrendingTerms(context.Background(), "US")

	require.NoError(t, err)
	assert.Empty(t, trends)
}

func TestMCPServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewMCPClient(server.URL)
	_, err := client.TrendingTerms(context.Background(), "US")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestMCPHealthz(t *testing.T) {
	server, _ := newMCPServer(t, nil)
	client := NewMCPClient(server.URL)

	assert.NoError(t, client.Healthz(context.Background()))
}

func TestMCPHealthzDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := NewMCPClient(server.URL)
	err := client.Healthz(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

// -----------------------------------------------------------------------
// Trends tool
// -----------------------------------------------------------------------

func TestGoogleTrendsFormats(t *testing.T) {
	server, captured := newMCPServer(t, []map[string]any{
		{"keyword": "sea games", "volume": 1500000},
		{"keyword": "elections", "volume": "500K+"},
		{},
	})

	tool := NewGoogleTrends(NewMCPClient(server.URL))
	output, err := tool.Invoke(context.Background(), "")

	require.NoError(t, err)
	want := "Google Trends (US):\n\n" +
		"1. sea games (Volume: 1500000)\n" +
		"2. elections (Volume: 500K+)\n" +
		"3. No keyword (Volume: N/A)\n"
	assert.Equal(t, want, output)
	assert.Equal(t, "US", captured.Arguments["geo"])
}

func TestGoogleTrendsPassesRegion(t *testing.T) {
	server, captured := newMCPServer(t, []map[string]any{})

	tool := NewGoogleTrends(NewMCPClient(server.URL))
	output, err := tool.Invoke(context.Background(), " ID ")

	require.NoError(t, err)
	assert.Equal(t, "ID", captured.Arguments["geo"])
	assert.Equal(t, "Google Trends (ID):\n\nNo trends data available.", output)
}

func TestGoogleTrendsCapsListAtTen(t *testing.T) {
	var many []map[string]any
	for i := 0; i < 14; i++ {
		many = append(many, map[string]any{"keyword": "term", "volume": i})
	}
	server, _ := newMCPServer(t, many)

	tool := NewGoogleTrends(NewMCPClient(server.URL))
	output, err := tool.Invoke(context.Background(), "US")

	require.NoError(t, err)
	assert.Contains(t, output, "10. term")
	assert.NotContains(t, output, "11. term")
}

func TestGoogleTrendsServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	tool := NewGoogleTrends(NewMCPClient(server.URL))
	output, err := tool.Invoke(context.Background(), "US")

	require.Error(t, err)
	assert.Empty(t, output)
}

func TestGoogleTrendsToolIdentity(t *testing.T) {
	tool := NewGoogleTrends(NewMCPClient("http://mcp:5000"))

	assert.Equal(t, "Google_Trends_MCP", tool.Name())
	assert.NotEmpty(t, tool.Description())
}

// -----------------------------------------------------------------------
// News tool
// -----------------------------------------------------------------------

func TestGoogleNewsFormats(t *testing.T) {
	longSummary := strings.Repeat("s", 250)
	server, _ := newMCPServer(t, []map[string]any{
		{"title": "AI advances", "url": "https://news.example/ai", "summary": longSummary},
		{"title": "", "url": "", "summary": ""},
	})

	tool := NewGoogleNews(NewMCPClient(server.URL))
	output, err := tool.Invoke(context.Background(), "ai")

	require.NoError(t, err)
	want := "News Articles for 'ai':\n\n" +
		"1. AI advances\n" +
		"   Summary: " + strings.Repeat("s", 200) + "...\n" +
		"   URL: https://news.example/ai\n" +
		"\n" +
		"2. No title\n" +
		"\n"
	assert.Equal(t, want, output)
}

func TestGoogleNewsNoArticles(t *testing.T) {
	server, _ := newMCPServer(t, []map[string]any{})

	tool := NewGoogleNews(NewMCPClient(server.URL))
	output, err := tool.Invoke(context.Background(), "nothing")

	require.NoError(t, err)
	assert.Equal(t, "News Articles for 'nothing':\n\nNo articles found.", output)
}

func TestGoogleNewsRequiresKeyword(t *testing.T) {
	server, _ := newMCPServer(t, []map[string]any{})

	tool := NewGoogleNews(NewMCPClient(server.URL))
	_, err := tool.Invoke(context.Background(), "  ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword")
}
