package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/services"
	"github.com/nutriguide/nutriguide/internal/impl/config"
	"github.com/nutriguide/nutriguide/internal/impl/integrations"
	repositories "github.com/nutriguide/nutriguide/internal/impl/repositories"
	"github.com/nutriguide/nutriguide/internal/impl/tools"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		cancel()
		os.Exit(0)
	}()

	logger := zap.NewNop()
	cfg, err := config.NewConfig(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	var toolList []entities.Tool
	if cfg.OpenAIAPIKey != "" {
		toolList = append(toolList, tools.NewVisionTool(
			"analyze_meal_image",
			"Analyzes a local meal image: detects food items, estimates portions, classifies healthiness, and computes per-item and total nutrition.",
			map[string]string{
				"api_key":  cfg.OpenAIAPIKey,
				"base_url": cfg.OpenAIBaseURL,
				"model":    cfg.VisionModel,
			},
			logger,
		))
	}
	if cfg.TavilyAPIKey != "" {
		toolList = append(toolList, tools.NewSearchTool(
			"web_search_nutrition",
			"Searches the web for nutrition and food quality information.",
			map[string]string{"tavily_api_key": cfg.TavilyAPIKey},
			logger,
		))
	}

	gateway, err := integrations.NewOpenAIGateway(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.ContextWindow, cfg.ModelTimeout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize model gateway:", err)
		os.Exit(1)
	}

	sessionStore := repositories.NewMemorySessionStore()
	chatService := services.NewChatService(sessionStore, gateway, tools.NewRegistry(toolList...), cfg.MaxToolRounds, cfg.ToolTimeout, logger)
	sessionKey := services.LocalUserID() + "_console"

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Println(boldGreen("NutriGuide - nutrition analysis assistant"))
	fmt.Printf("Using model: %s\n", boldCyan(cfg.ChatModel))
	fmt.Println("Describe a meal or ask a nutrition question. Type 'exit' or press Ctrl+C to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			break
		}

		answer, err := chatService.SendMessage(ctx, sessionKey, nil, input)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}
		fmt.Printf("%s %s\n\n", boldCyan("NutriGuide:"), answer.Content)
	}
}
