// Package tools provides the built-in tools the agent dispatches: Tavily
// web search and the Google Trends MCP bridge.
//
// Every tool formats its output as plain text the model can read
// directly. Transport or API failures are returned as errors so the
// dispatcher can report them and the loop can fold them into the
// conversation.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/currentslabs/currents"
)

// TavilyBaseURL is the production Tavily API endpoint.
const TavilyBaseURL = "https://api.tavily.com"

// TavilySearchName is the canonical registry name, exactly as the system
// prompt spells it.
const TavilySearchName = "Tavily_Search"

// tavilyMaxResults caps how many hits a single search requests.
const tavilyMaxResults = 5

// TavilySearch queries the Tavily web search API and formats the hits
// for the model to read.
type TavilySearch struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ currents.Tool = (*TavilySearch)(nil)

// NewTavilySearch creates a Tavily search tool. The key is a Tavily API
// key from https://app.tavily.com.
func NewTavilySearch(apiKey string) *TavilySearch {
	return &TavilySearch{
		apiKey:  apiKey,
		baseURL: TavilyBaseURL,
		client:  &http.Client{},
	}
}

// WithBaseURL overrides the API endpoint. Returns the same tool for
// chaining.
func (t *TavilySearch) WithBaseURL(baseURL string) *TavilySearch {
	t.baseURL = strings.TrimRight(baseURL, "/")
	return t
}

// WithHTTPClient overrides the HTTP client. Returns the same tool for
// chaining.
func (t *TavilySearch) WithHTTPClient(client *http.Client) *TavilySearch {
	t.client = client
	return t
}

// Name implements currents.Tool.
func (t *TavilySearch) Name() string {
	return TavilySearchName
}

// Description implements currents.Tool.
func (t *TavilySearch) Description() string {
	return "Search the web for current information, news, and recent events"
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Invoke implements currents.Tool. The input is the search query.
func (t *TavilySearch) Invoke(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "", fmt.Errorf("search query is empty")
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:        t.apiKey,
		Query:         query,
		MaxResults:    tavilyMaxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return "", fmt.Errorf("encode tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tavily returned status %d", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode tavily response: %w", err)
	}

	return formatSearchResults(query, &parsed), nil
}

// formatSearchResults renders search hits as the numbered list the agent
// prompt teaches the model to expect.
func formatSearchResults(query string, response *tavilyResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search Results for '%s':\n\n", query)

	if response.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n\n", response.Answer)
	}

	if len(response.Results) == 0 {
		b.WriteString("No results found.")
		return b.String()
	}

	b.WriteString("Top Results:\n")
	for i, result := range response.Results {
		title := result.Title
		if title == "" {
			title = "No title"
		}
		url := result.URL
		if url == "" {
			url = "No URL"
		}
		content := result.Content
		if content == "" {
			content = "No content"
		}
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n   %s\n", i+1, title, url, content)
	}
	return b.String()
}
