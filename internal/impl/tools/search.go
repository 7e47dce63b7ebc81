package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nutriguide/nutriguide/internal/domain/entities"

	"go.uber.org/zap"
)

// SearchTool searches the web using the Tavily API. Search failures are
// reported as a descriptive result string so the model can react to them in
// natural language; Execute never returns an error for provider problems.
type SearchTool struct {
	name          string
	description   string
	configuration map[string]string
	apiURL        string
	logger        *zap.Logger
}

func NewSearchTool(name, description string, configuration map[string]string, logger *zap.Logger) *SearchTool {
	return &SearchTool{
		name:          name,
		description:   description,
		configuration: configuration,
		apiURL:        "https://api.tavily.com/search",
		logger:        logger,
	}
}

func (t *SearchTool) Name() string {
	return t.name
}

func (t *SearchTool) Description() string {
	return t.description
}

func (t *SearchTool) Configuration() map[string]string {
	return t.configuration
}

func (t *SearchTool) Parameters() []entities.Parameter {
	return []entities.Parameter{
		{
			Name:        "query",
			Type:        "string",
			Description: "The search query about nutrition, food quality, or dietary information",
			Required:    true,
		},
	}
}

// Execute performs the search and formats the result snippets.
func (t *SearchTool) Execute(arguments string) (string, error) {
	t.logger.Debug("Executing search", zap.String("arguments", arguments))

	type args struct {
		Query string `json:"query"`
	}
	var query string
	var argumentsArgs args

	if err := json.Unmarshal([]byte(arguments), &argumentsArgs); err != nil {
		// If unmarshaling into struct fails, try as a simple string
		if err := json.Unmarshal([]byte(arguments), &query); err != nil {
			t.logger.Error("Failed to parse arguments", zap.Error(err))
			return fmt.Sprintf("Error performing web search: invalid arguments: %v", err), nil
		}
	} else {
		query = argumentsArgs.Query
	}

	if query == "" {
		return "Error performing web search: search query cannot be empty", nil
	}
	t.logger.Info("Search query", zap.String("query", query))

	apiKey, ok := t.configuration["tavily_api_key"]
	if !ok || apiKey == "" {
		return "Error performing web search: tavily_api_key not configured", nil
	}

	payload := map[string]any{
		"query":          query,
		"max_results":    5,
		"search_depth":   "advanced",
		"include_answer": true,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}

	req, err := http.NewRequest(http.MethodPost, t.apiURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		t.logger.Error("Failed to execute search request", zap.Error(err))
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}
	if resp.StatusCode != http.StatusOK {
		t.logger.Error("Search API request failed", zap.Int("status_code", resp.StatusCode))
		return fmt.Sprintf("Error performing web search: status code %d", resp.StatusCode), nil
	}

	type tavilyResponse struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	var result tavilyResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}

	if result.Answer == "" && len(result.Results) == 0 {
		return "No results found for the query.", nil
	}

	output := fmt.Sprintf("Search Results for: %q\n\n", query)
	if result.Answer != "" {
		output += "Answer: " + result.Answer + "\n\n"
	}
	for i, res := range result.Results {
		output += fmt.Sprintf("%d. %s\n   URL: %s\n   Content: %s\n   Relevance Score: %.2f\n\n", i+1, res.Title, res.URL, res.Content, res.Score)
	}

	t.logger.Info("Search completed", zap.Int("results", len(result.Results)))
	return output, nil
}

var _ entities.Tool = (*SearchTool)(nil)
