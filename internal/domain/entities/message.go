package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type Message struct {
	ID         string     `json:"id" bson:"id"`
	Role       string     `json:"role" bson:"role"`
	Content    string     `json:"content" bson:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty" bson:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty" bson:"tool_call_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp" bson:"timestamp"`
}

func NewMessage(role, content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewToolResult builds a tool-role message correlated to the originating
// tool call.
func NewToolResult(toolCallID, content string) *Message {
	msg := NewMessage(RoleTool, content)
	msg.ToolCallID = toolCallID
	return msg
}

// HasToolCalls reports whether the message carries pending tool invocation
// requests. A message with no tool calls is a final answer.
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
