package tools

import (
	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"
	"github.com/nutriguide/nutriguide/internal/domain/interfaces"
)

// Registry is the static set of tools exposed to the model. It is assembled
// once at startup and never mutated afterwards.
type Registry struct {
	names []string
	tools map[string]entities.Tool
}

func NewRegistry(toolList ...entities.Tool) *Registry {
	registry := &Registry{
		tools: make(map[string]entities.Tool),
	}
	for _, tool := range toolList {
		registry.names = append(registry.names, tool.Name())
		registry.tools[tool.Name()] = tool
	}
	return registry
}

// ListTools returns the tools in registration order.
func (r *Registry) ListTools() []entities.Tool {
	toolList := make([]entities.Tool, 0, len(r.names))
	for _, name := range r.names {
		toolList = append(toolList, r.tools[name])
	}
	return toolList
}

func (r *Registry) GetToolByName(name string) (entities.Tool, error) {
	tool, exists := r.tools[name]
	if !exists {
		return nil, errors.NotFoundErrorf("tool with name '%s' not found", name)
	}
	return tool, nil
}

var _ interfaces.ToolRegistry = (*Registry)(nil)
