package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"
	"github.com/nutriguide/nutriguide/internal/domain/interfaces"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// turnState drives the per-turn loop: call the model, route to tools while
// the answer carries tool calls, finish when it does not.
type turnState int

const (
	stateAwaitingModel turnState = iota
	stateAwaitingTool
	stateDone
)

type ChatService interface {
	// SendMessage runs one full turn for the session and returns the final
	// assistant message. The optional history seeds a session that has not
	// been seen before.
	SendMessage(ctx context.Context, sessionKey string, history []entities.Message, content string) (*entities.Message, error)
}

type chatService struct {
	sessions      interfaces.SessionStore
	gateway       interfaces.ModelGateway
	registry      interfaces.ToolRegistry
	maxToolRounds int
	toolTimeout   time.Duration
	turnLocks     sync.Map // session key -> *sync.Mutex
	logger        *zap.Logger
}

func NewChatService(sessions interfaces.SessionStore, gateway interfaces.ModelGateway, registry interfaces.ToolRegistry, maxToolRounds int, toolTimeout time.Duration, logger *zap.Logger) ChatService {
	if maxToolRounds <= 0 {
		maxToolRounds = 10
	}
	if toolTimeout <= 0 {
		toolTimeout = 60 * time.Second
	}
	return &chatService{
		sessions:      sessions,
		gateway:       gateway,
		registry:      registry,
		maxToolRounds: maxToolRounds,
		toolTimeout:   toolTimeout,
		logger:        logger,
	}
}

func (s *chatService) SendMessage(ctx context.Context, sessionKey string, history []entities.Message, content string) (*entities.Message, error) {
	if sessionKey == "" {
		return nil, errors.ValidationErrorf("session key cannot be empty")
	}
	if content == "" {
		return nil, errors.ValidationErrorf("message content cannot be empty")
	}

	// One turn at a time per session; other sessions are unaffected.
	lock, _ := s.turnLocks.LoadOrStore(sessionKey, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	stored := s.sessions.GetMessages(sessionKey)

	// pending holds everything this turn produces. It is committed in a
	// single append once the turn completes, so a canceled or failed turn
	// leaves no partial history.
	var pending []entities.Message
	if len(stored) == 0 && len(history) > 0 {
		pending = append(pending, history...)
	}
	pending = append(pending, *entities.NewMessage(entities.RoleUser, content))

	conversation := make([]entities.Message, 0, 1+len(stored)+len(pending))
	conversation = append(conversation, *entities.NewMessage(entities.RoleSystem, SystemPrompt))
	conversation = append(conversation, stored...)
	conversation = append(conversation, pending...)

	toolList := s.registry.ListTools()

	state := stateAwaitingModel
	rounds := 0
	for state != stateDone {
		if err := ctx.Err(); err != nil {
			return nil, errors.CanceledErrorf("turn canceled: %v", err)
		}

		switch state {
		case stateAwaitingModel:
			if rounds >= s.maxToolRounds {
				return nil, errors.ToolLoopErrorf("model requested tools for %d consecutive rounds; giving up", rounds)
			}
			rounds++

			answer, err := s.gateway.GenerateResponse(ctx, conversation, toolList)
			if err != nil {
				return nil, err
			}
			pending = append(pending, *answer)
			conversation = append(conversation, *answer)

			if answer.HasToolCalls() {
				state = stateAwaitingTool
			} else {
				state = stateDone
			}

		case stateAwaitingTool:
			answer := conversation[len(conversation)-1]
			results, err := s.invokeTools(ctx, answer.ToolCalls)
			if err != nil {
				return nil, err
			}
			// One result message per request, in request order, before the
			// next model call.
			for i, call := range answer.ToolCalls {
				msg := entities.NewToolResult(call.ID, results[i])
				pending = append(pending, *msg)
				conversation = append(conversation, *msg)
			}
			state = stateAwaitingModel
		}
	}

	s.sessions.Append(sessionKey, pending...)

	final := pending[len(pending)-1]
	fields := []zap.Field{
		zap.String("session_key", sessionKey),
		zap.String("model", s.gateway.ModelName()),
		zap.Int("rounds", rounds),
		zap.Int("messages", len(pending)),
	}
	if usage, err := s.gateway.GetUsage(); err == nil {
		fields = append(fields,
			zap.Int("prompt_tokens", usage.PromptTokens),
			zap.Int("completion_tokens", usage.CompletionTokens),
			zap.Int("total_tokens", usage.TotalTokens))
	}
	s.logger.Info("Turn completed", fields...)
	return &final, nil
}

// invokeTools fans out the requested tool calls concurrently and reassembles
// the results in request order. A tool failure becomes result text; only
// context cancellation aborts the turn.
func (s *chatService) invokeTools(ctx context.Context, calls []entities.ToolCall) ([]string, error) {
	results := make([]string, len(calls))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = s.invokeTool(groupCtx, call)
			return groupCtx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.CanceledErrorf("turn canceled: %v", err)
	}
	return results, nil
}

func (s *chatService) invokeTool(ctx context.Context, call entities.ToolCall) string {
	name := call.Function.Name
	if call.Type != "" && call.Type != "function" {
		return fmt.Sprintf("Tool call type %q is not supported", call.Type)
	}

	tool, err := s.registry.GetToolByName(name)
	if err != nil {
		s.logger.Warn("Model requested unknown tool", zap.String("tool", name))
		return fmt.Sprintf("Tool %s not found", name)
	}

	type outcome struct {
		output string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		output, err := tool.Execute(call.Function.Arguments)
		done <- outcome{output, err}
	}()

	timer := time.NewTimer(s.toolTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			s.logger.Warn("Tool execution failed", zap.String("tool", name), zap.Error(res.err))
			return fmt.Sprintf("Tool %s execution failed: %v", name, res.err)
		}
		return res.output
	case <-timer.C:
		s.logger.Warn("Tool execution timed out", zap.String("tool", name), zap.Duration("timeout", s.toolTimeout))
		return fmt.Sprintf("Tool %s timed out after %s", name, s.toolTimeout)
	case <-ctx.Done():
		return fmt.Sprintf("Tool %s canceled", name)
	}
}
