package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/currentslabs/currents"
)

// Canonical registry names, exactly as the system prompt spells them.
const (
	GoogleTrendsName = "Google_Trends_MCP"
	GoogleNewsName   = "Google_News_MCP"
)

// DefaultGeo is the region used when a trends request names none.
const DefaultGeo = "US"

const (
	maxTrends   = 10
	maxArticles = 5
)

// MCPClient talks to the Google News Trends MCP server over its HTTP
// bridge. The server exposes tool calls at POST /mcp/tools/call and a
// liveness probe at GET /healthz.
type MCPClient struct {
	baseURL string
	client  *http.Client
}

// NewMCPClient creates a client for the MCP server at baseURL, e.g.
// "http://mcp:5000".
func NewMCPClient(baseURL string) *MCPClient {
	return &MCPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// WithHTTPClient overrides the HTTP client. Returns the same client for
// chaining.
func (c *MCPClient) WithHTTPClient(client *http.Client) *MCPClient {
	c.client = client
	return c
}

// Trend is one trending search term.
type Trend struct {
	Keyword string `json:"keyword"`
	Volume  any    `json:"volume"`
}

// Article is one news article returned by keyword search.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// TrendingTerms fetches the currently trending search terms for a
// region.
func (c *MCPClient) TrendingTerms(ctx context.Context, geo string) ([]Trend, error) {
	if geo == "" {
		geo = DefaultGeo
	}

	content, err := c.call(ctx, "get_trending_terms", map[string]any{
		"geo":       geo,
		"full_data": false,
	})
	if err != nil {
		return nil, err
	}

	var trends []Trend
	if err := json.Unmarshal(content, &trends); err != nil {
		return nil, fmt.Errorf("decode trends: %w", err)
	}
	return trends, nil
}

// NewsByKeyword fetches summarized news articles matching a keyword.
func (c *MCPClient) NewsByKeyword(ctx context.Context, keyword string) ([]Article, error) {
	content, err := c.call(ctx, "get_news_by_keyword", map[string]any{
		"keyword":     keyword,
		"max_results": maxArticles,
		"full_data":   false,
		"summarize":   true,
	})
	if err != nil {
		return nil, err
	}

	var articles []Article
	if err := json.Unmarshal(content, &articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return articles, nil
}

// Healthz probes the MCP server's liveness endpoint.
func (c *MCPClient) Healthz(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("build mcp health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mcp health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mcp health returned status %d", resp.StatusCode)
	}
	return nil
}

// call invokes a named MCP tool. The bridge returns either a bare JSON
// array or an object wrapping it under "content"; both shapes are
// normalized to the inner array.
func (c *MCPClient) call(ctx context.Context, name string, arguments map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"name":      name,
		"arguments": arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("encode mcp request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mcp/tools/call", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build mcp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mcp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mcp returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mcp response: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.RawMessage(trimmed), nil
	}

	var wrapped struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode mcp response: %w", err)
	}
	if wrapped.Content == nil {
		return json.RawMessage("[]"), nil
	}
	return wrapped.Content, nil
}

// GoogleTrends reports trending search terms through the MCP bridge. The
// tool input is the region code; empty input falls back to DefaultGeo.
type GoogleTrends struct {
	client *MCPClient
}

var _ currents.Tool = (*GoogleTrends)(nil)

// NewGoogleTrends creates the trending terms tool on top of an MCP
// client.
func NewGoogleTrends(client *MCPClient) *GoogleTrends {
	return &GoogleTrends{client: client}
}

// Name implements currents.Tool.
func (g *GoogleTrends) Name() string {
	return GoogleTrendsName
}

// Description implements currents.Tool.
func (g *GoogleTrends) Description() string {
	return "Get trending topics and popular searches"
}

// Invoke implements currents.Tool.
func (g *GoogleTrends) Invoke(ctx context.Context, input string) (string, error) {
	geo := strings.TrimSpace(input)
	if geo == "" {
		geo = DefaultGeo
	}

	trends, err := g.client.TrendingTerms(ctx, geo)
	if err != nil {
		return "", err
	}
	return formatTrends(geo, trends), nil
}

// GoogleNews fetches summarized news articles for a keyword through the
// MCP bridge. It is not part of the default registry; callers can
// register it alongside the trends tool when the MCP server has news
// summarization enabled.
type GoogleNews struct {
	client *MCPClient
}

var _ currents.Tool = (*GoogleNews)(nil)

// NewGoogleNews creates the keyword news tool on top of an MCP client.
func NewGoogleNews(client *MCPClient) *GoogleNews {
	return &GoogleNews{client: client}
}

// Name implements currents.Tool.
func (g *GoogleNews) Name() string {
	return GoogleNewsName
}

// Description implements currents.Tool.
func (g *GoogleNews) Description() string {
	return "Get summarized news articles for a keyword"
}

// Invoke implements currents.Tool.
func (g *GoogleNews) Invoke(ctx context.Context, input string) (string, error) {
	keyword := strings.TrimSpace(input)
	if keyword == "" {
		return "", fmt.Errorf("news keyword is empty")
	}

	articles, err := g.client.NewsByKeyword(ctx, keyword)
	if err != nil {
		return "", err
	}
	return formatNews(keyword, articles), nil
}

// formatTrends renders trending terms as a numbered list.
func formatTrends(geo string, trends []Trend) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Google Trends (%s):\n\n", geo)

	if len(trends) == 0 {
		b.WriteString("No trends data available.")
		return b.String()
	}

	for i, trend := range trends {
		if i == maxTrends {
			break
		}
		keyword := trend.Keyword
		if keyword == "" {
			keyword = "No keyword"
		}
		fmt.Fprintf(&b, "%d. %s (Volume: %s)\n", i+1, keyword, formatVolume(trend.Volume))
	}
	return b.String()
}

// formatNews renders articles as a numbered list with clipped summaries.
func formatNews(keyword string, articles []Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "News Articles for '%s':\n\n", keyword)

	if len(articles) == 0 {
		b.WriteString("No articles found.")
		return b.String()
	}

	for i, article := range articles {
		if i == maxArticles {
			break
		}
		title := article.Title
		if title == "" {
			title = "No title"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		if article.Summary != "" {
			fmt.Fprintf(&b, "   Summary: %s...\n", clip(article.Summary, 200))
		}
		if article.URL != "" {
			fmt.Fprintf(&b, "   URL: %s\n", article.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatVolume renders a search volume that may arrive as a number or a
// label like "500K+".
func formatVolume(volume any) string {
	switch v := volume.(type) {
	case nil:
		return "N/A"
	case string:
		if v == "" {
			return "N/A"
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
