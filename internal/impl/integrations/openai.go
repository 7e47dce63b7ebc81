package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"
	"github.com/nutriguide/nutriguide/internal/domain/interfaces"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// OpenAIGateway talks to an OpenAI-compatible chat-completions endpoint.
// Each GenerateResponse call is a single provider round-trip; tool-call
// handling is left to the caller.
type OpenAIGateway struct {
	baseURL       string
	apiKey        string
	model         string
	contextWindow int
	httpClient    *http.Client
	logger        *zap.Logger

	// usageMu guards lastUsage; one gateway serves turns from many
	// sessions concurrently.
	usageMu   sync.Mutex
	lastUsage entities.Usage
}

func NewOpenAIGateway(baseURL, apiKey, model string, contextWindow int, timeout time.Duration, logger *zap.Logger) (*OpenAIGateway, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	return &OpenAIGateway{
		baseURL:       baseURL,
		apiKey:        apiKey,
		model:         model,
		contextWindow: contextWindow,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}, nil
}

func (g *OpenAIGateway) ModelName() string {
	return g.model
}

// GetUsage returns a copy of the usage recorded by the most recent call.
func (g *OpenAIGateway) GetUsage() (*entities.Usage, error) {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()

	usage := g.lastUsage
	return &usage, nil
}

// convertToAPIMessages converts message entities to the chat-completions
// wire format.
func convertToAPIMessages(messages []entities.Message) []map[string]any {
	apiMessages := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		apiMsg := map[string]any{
			"role": msg.Role,
		}
		if msg.Role == entities.RoleAssistant && len(msg.ToolCalls) > 0 {
			apiMsg["tool_calls"] = msg.ToolCalls
			// Provide default content if none exists, to avoid empty string issues
			if msg.Content == "" {
				apiMsg["content"] = "Executing tool call."
			} else {
				apiMsg["content"] = msg.Content
			}
		} else {
			apiMsg["content"] = msg.Content
			if msg.Role == entities.RoleTool {
				apiMsg["tool_call_id"] = msg.ToolCallID
			}
		}
		apiMessages = append(apiMessages, apiMsg)
	}
	return apiMessages
}

// convertToAPITools converts tool definitions to the function-calling
// schema.
func convertToAPITools(toolList []entities.Tool) []map[string]any {
	tools := make([]map[string]any, len(toolList))
	for i, tool := range toolList {
		requiredFields := make([]string, 0)
		properties := make(map[string]any)
		for _, param := range tool.Parameters() {
			if param.Required {
				requiredFields = append(requiredFields, param.Name)
			}
			property := map[string]any{
				"type":        param.Type,
				"description": param.Description,
			}
			if len(param.Enum) > 0 {
				property["enum"] = param.Enum
			}
			if param.Type == "array" && len(param.Items) > 0 {
				property["items"] = map[string]any{
					"type": param.Items[0].Type,
				}
			}
			properties[param.Name] = property
		}

		tools[i] = map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        tool.Name(),
				"description": tool.Description(),
				"parameters": map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   requiredFields,
				},
			},
		}
	}
	return tools
}

// GenerateResponse sends the conversation and returns the assistant's next
// message, which either is a final answer or carries tool calls.
func (g *OpenAIGateway) GenerateResponse(ctx context.Context, messages []entities.Message, toolList []entities.Tool) (*entities.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.CanceledErrorf("operation canceled: %v", err)
	}

	if tokens := estimateTokens(messages); tokens > g.contextWindow {
		return nil, errors.RequestTooLargeErrorf("conversation is %d tokens, over the %d token context window", tokens, g.contextWindow)
	}

	reqBody := map[string]any{
		"model":    g.model,
		"messages": convertToAPIMessages(messages),
	}
	if len(toolList) > 0 {
		reqBody["tools"] = convertToAPITools(toolList)
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.InternalErrorf("error marshaling request: %v", err)
	}
	g.logger.Debug("Request body", zap.String("body", string(jsonBody)))

	var resp *http.Response
	for attempt := 0; attempt < 3; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.CanceledErrorf("operation canceled: %v", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, errors.InternalErrorf("error creating request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+g.apiKey)

		resp, err = g.httpClient.Do(req)
		if err != nil {
			if attempt < 2 {
				g.logger.Warn("Error making request, retrying", zap.Error(err))
				time.Sleep(time.Duration(attempt+1) * time.Second)
				continue
			}
			return nil, errors.UnavailableErrorf("error making request: %v", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt < 2 {
				time.Sleep(time.Duration(attempt+1) * time.Second)
				continue
			}
			return nil, errors.UnavailableErrorf("rate limit exceeded")
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			g.logger.Error("Unexpected status code", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
			return nil, errors.UnavailableErrorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
		break
	}
	defer resp.Body.Close()

	var responseBody struct {
		Choices []struct {
			Message struct {
				Content   string              `json:"content"`
				ToolCalls []entities.ToolCall `json:"tool_calls,omitempty"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return nil, errors.UnavailableErrorf("error decoding response: %v", err)
	}
	if len(responseBody.Choices) == 0 {
		return nil, errors.UnavailableErrorf("no choices in response")
	}

	g.usageMu.Lock()
	g.lastUsage = entities.Usage{
		PromptTokens:     responseBody.Usage.PromptTokens,
		CompletionTokens: responseBody.Usage.CompletionTokens,
		TotalTokens:      responseBody.Usage.TotalTokens,
	}
	g.usageMu.Unlock()

	choice := responseBody.Choices[0].Message
	message := &entities.Message{
		ID:        uuid.New().String(),
		Role:      entities.RoleAssistant,
		Content:   choice.Content,
		ToolCalls: choice.ToolCalls,
		Timestamp: time.Now(),
	}
	return message, nil
}

// estimateTokens approximates the request size before sending it. When the
// tokenizer is unavailable it falls back to a four-bytes-per-token estimate.
func estimateTokens(messages []entities.Message) int {
	enc, err := tiktoken.EncodingForModel("gpt-4")
	total := 0
	for _, msg := range messages {
		if err != nil {
			total += len(msg.Content) / 4
			continue
		}
		total += len(enc.Encode(msg.Content, nil, nil))
	}
	return total
}

var _ interfaces.ModelGateway = (*OpenAIGateway)(nil)
