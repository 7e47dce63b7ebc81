package interfaces

import (
	"context"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
)

// ModelGateway is a stateless wrapper around a chat-completion provider.
// One call is exactly one provider round-trip: the returned message is
// either a final answer or an answer carrying tool calls. The tool loop
// belongs to the caller, not the gateway.
type ModelGateway interface {
	// GenerateResponse sends the ordered message history plus the tool
	// definitions and returns the assistant's next message.
	GenerateResponse(ctx context.Context, messages []entities.Message, tools []entities.Tool) (*entities.Message, error)

	// GetUsage returns token usage recorded on the last call.
	GetUsage() (*entities.Usage, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}
