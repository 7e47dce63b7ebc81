package tools

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"

	"go.uber.org/zap"
)

const visionSystemPrompt = `You are a registered-dietitian-level nutrition assistant analyzing a meal photo.
Identify each visible food and drink item with its likely preparation method,
estimate portion sizes from visual cues (plate size, item volume), and
classify each item and the whole meal as health-supporting, neutral, or limit.
Estimate nutrition per item and for the full meal: calories, protein, carbs
(fiber and sugar when possible), fat (saturated fat when possible), sodium,
and notable micronutrients when data allows. Answer the user's question using
the detected items, suggest practical improvements and swaps, list the
assumptions you made, and give an overall confidence rating of high, medium,
or low. Image-based portions are approximate: use ranges when uncertain and
never invent exact numbers you do not have.`

// VisionTool analyzes a local meal image with a vision-capable model and
// returns the analysis text. The image is inlined as a base64 data URL.
type VisionTool struct {
	name          string
	description   string
	configuration map[string]string
	httpClient    *http.Client
	logger        *zap.Logger
}

func NewVisionTool(name, description string, configuration map[string]string, logger *zap.Logger) *VisionTool {
	return &VisionTool{
		name:          name,
		description:   description,
		configuration: configuration,
		httpClient:    &http.Client{Timeout: 120 * time.Second},
		logger:        logger,
	}
}

func (t *VisionTool) Name() string {
	return t.name
}

func (t *VisionTool) Description() string {
	return t.description
}

func (t *VisionTool) Configuration() map[string]string {
	return t.configuration
}

func (t *VisionTool) Parameters() []entities.Parameter {
	return []entities.Parameter{
		{
			Name:        "image_path",
			Type:        "string",
			Description: "Local path to the meal image file (jpg/png/webp)",
			Required:    true,
		},
		{
			Name:        "question",
			Type:        "string",
			Description: "A specific question or context about the meal, e.g. goal, dietary preference, health condition",
			Required:    false,
		},
	}
}

func (t *VisionTool) Execute(arguments string) (string, error) {
	t.logger.Debug("Executing vision analysis", zap.String("arguments", arguments))

	var args struct {
		ImagePath string `json:"image_path"`
		Question  string `json:"question"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", errors.ValidationErrorf("invalid arguments: %v", err)
	}
	if args.ImagePath == "" {
		return "", errors.ValidationErrorf("image_path is required")
	}
	if args.Question == "" {
		args.Question = "Analyze this meal image"
	}

	if _, err := os.Stat(args.ImagePath); os.IsNotExist(err) {
		return "", errors.NotFoundErrorf("image not found: %s", args.ImagePath)
	}

	data, err := os.ReadFile(args.ImagePath)
	if err != nil {
		return "", errors.InternalErrorf("failed to read image: %v", err)
	}
	imageURL := fmt.Sprintf("data:%s;base64,%s", mimeTypeFor(args.ImagePath), base64.StdEncoding.EncodeToString(data))

	reqBody := map[string]any{
		"model": t.configuration["model"],
		"messages": []map[string]any{
			{
				"role":    "system",
				"content": visionSystemPrompt,
			},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": args.Question},
					{"type": "image_url", "image_url": map[string]string{"url": imageURL, "detail": "high"}},
				},
			},
		},
		"max_tokens": 2000,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.InternalErrorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.configuration["base_url"]+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", errors.InternalErrorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.configuration["api_key"])

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error("Vision request failed", zap.Error(err))
		return "", errors.UnavailableErrorf("vision analysis failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.logger.Error("Vision request returned error status", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
		return "", errors.UnavailableErrorf("vision analysis failed with status %d", resp.StatusCode)
	}

	var responseBody struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return "", errors.UnavailableErrorf("failed to decode vision response: %v", err)
	}
	if len(responseBody.Choices) == 0 {
		return "", errors.UnavailableErrorf("no choices in vision response")
	}

	t.logger.Info("Vision analysis completed", zap.String("image_path", args.ImagePath))
	return responseBody.Choices[0].Message.Content, nil
}

func mimeTypeFor(imagePath string) string {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

var _ entities.Tool = (*VisionTool)(nil)
