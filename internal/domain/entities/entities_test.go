package entities

import (
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	before := time.Now()
	msg := NewMessage(RoleUser, "what is in a banana?")

	if msg.ID == "" {
		t.Error("Expected a generated message id")
	}
	if msg.Role != RoleUser {
		t.Errorf("Expected role %s, got %s", RoleUser, msg.Role)
	}
	if msg.Content != "what is in a banana?" {
		t.Errorf("Unexpected content %q", msg.Content)
	}
	if msg.Timestamp.Before(before) {
		t.Error("Expected timestamp to be set at creation time")
	}
	if msg.HasToolCalls() {
		t.Error("A fresh message must not carry tool calls")
	}
}

func TestMessage_HasToolCalls(t *testing.T) {
	msg := NewMessage(RoleAssistant, "")
	call := ToolCall{ID: "tc-1", Type: "function"}
	call.Function.Name = "web_search_nutrition"
	msg.ToolCalls = append(msg.ToolCalls, call)

	if !msg.HasToolCalls() {
		t.Error("Expected HasToolCalls to be true")
	}
}

func TestNewToolResult(t *testing.T) {
	msg := NewToolResult("tc-1", "search output")

	if msg.Role != RoleTool {
		t.Errorf("Expected role %s, got %s", RoleTool, msg.Role)
	}
	if msg.ToolCallID != "tc-1" {
		t.Errorf("Expected tool call id tc-1, got %s", msg.ToolCallID)
	}
	if msg.Content != "search output" {
		t.Errorf("Unexpected content %q", msg.Content)
	}
}

func TestNewMeal(t *testing.T) {
	meal := NewMeal(3, "lunch.jpg", "grilled chicken", "uploads/meals/meals_3.jpg", "user_abc")

	if meal.ID != 3 {
		t.Errorf("Expected id 3, got %d", meal.ID)
	}
	if meal.Name != "lunch.jpg" {
		t.Errorf("Unexpected name %q", meal.Name)
	}
	if meal.Description != "grilled chicken" {
		t.Errorf("Unexpected description %q", meal.Description)
	}
	if meal.UserID != "user_abc" {
		t.Errorf("Unexpected user id %q", meal.UserID)
	}
	if meal.UploadDate.IsZero() {
		t.Error("Expected upload date to be set")
	}
}
