package interfaces

import "github.com/nutriguide/nutriguide/internal/domain/entities"

// ToolRegistry is the fixed set of capabilities exposed to the model,
// assembled once at startup and passed down explicitly.
type ToolRegistry interface {
	ListTools() []entities.Tool
	GetToolByName(name string) (entities.Tool, error)
}
