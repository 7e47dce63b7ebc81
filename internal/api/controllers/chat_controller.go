package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"
	"github.com/nutriguide/nutriguide/internal/domain/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ChatController struct {
	logger      *zap.Logger
	chatService services.ChatService
}

func NewChatController(logger *zap.Logger, chatService services.ChatService) *ChatController {
	return &ChatController{
		logger:      logger,
		chatService: chatService,
	}
}

func (c *ChatController) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", c.Health)
	e.POST("/api/chat", c.Chat)
}

// ChatMessage is one role-tagged entry of an explicit request history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest accepts a single message, a list of messages, or an explicit
// role-tagged history, plus an optional session key.
type ChatRequest struct {
	Message   string        `json:"message"`
	Messages  []string      `json:"messages"`
	History   []ChatMessage `json:"history"`
	SessionID string        `json:"session_id"`
}

// CombinedMessage returns a single markdown string combining message(s).
func (r *ChatRequest) CombinedMessage() string {
	if r.Message != "" {
		return r.Message
	}
	return strings.Join(r.Messages, "\n\n")
}

type ChatResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *ChatController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (c *ChatController) Chat(ctx echo.Context) error {
	var req ChatRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badRequest(ctx, "Invalid request body")
	}
	if req.Message == "" && len(req.Messages) == 0 {
		return c.badRequest(ctx, "Either 'message' or 'messages' must be provided")
	}

	sessionKey := req.SessionID
	if sessionKey == "" {
		sessionKey = services.LocalUserID() + "_api_session"
	}

	history := make([]entities.Message, 0, len(req.History))
	for _, msg := range req.History {
		role := entities.RoleAssistant
		if msg.Role == entities.RoleUser {
			role = entities.RoleUser
		}
		history = append(history, *entities.NewMessage(role, msg.Content))
	}

	answer, err := c.chatService.SendMessage(ctx.Request().Context(), sessionKey, history, req.CombinedMessage())
	if err != nil {
		switch err.(type) {
		case *errors.ValidationError:
			return c.badRequest(ctx, err.Error())
		default:
			// The caller always receives a response payload; failures are
			// rendered as human-readable text.
			c.logger.Error("Chat turn failed", zap.String("session_key", sessionKey), zap.Error(err))
			return ctx.JSON(http.StatusOK, ChatResponse{
				Role:    entities.RoleAssistant,
				Content: fmt.Sprintf("**Error:** %v", err),
			})
		}
	}

	content := answer.Content
	if content == "" {
		content = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
	}
	return ctx.JSON(http.StatusOK, ChatResponse{
		Role:    entities.RoleAssistant,
		Content: content,
	})
}

func (c *ChatController) badRequest(ctx echo.Context, message string) error {
	c.logger.Warn("Invalid chat request", zap.String("reason", message))
	return ctx.JSON(http.StatusBadRequest, map[string]string{"error": message})
}
