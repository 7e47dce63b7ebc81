package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/nutriguide/nutriguide/internal/api/controllers"
	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/interfaces"
	"github.com/nutriguide/nutriguide/internal/domain/services"
	"github.com/nutriguide/nutriguide/internal/impl/config"
	"github.com/nutriguide/nutriguide/internal/impl/database"
	"github.com/nutriguide/nutriguide/internal/impl/integrations"
	repositories "github.com/nutriguide/nutriguide/internal/impl/repositories"
	repositoriesJson "github.com/nutriguide/nutriguide/internal/impl/repositories/json"
	repositoriesMongo "github.com/nutriguide/nutriguide/internal/impl/repositories/mongo"
	"github.com/nutriguide/nutriguide/internal/impl/tools"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	storage := flag.String("storage", "file", "Storage type: file or mongo")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.NewConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	var mealRepo interfaces.MealRepository
	switch *storage {
	case "mongo":
		db, err := database.NewMongoDB(cfg.MongoURI, "nutriguide", logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer db.Disconnect(context.Background())
		mealRepo = repositoriesMongo.NewMongoMealRepository(db.Collection("meals"))
	case "file":
		mealRepo, err = repositoriesJson.NewJSONMealRepository(cfg.DataDir)
		if err != nil {
			logger.Fatal("Failed to initialize meal repository", zap.Error(err))
		}
	default:
		logger.Fatal("Unknown storage type", zap.String("storage", *storage))
	}

	var visionTool entities.Tool
	var toolList []entities.Tool
	if cfg.OpenAIAPIKey != "" {
		visionTool = tools.NewVisionTool(
			"analyze_meal_image",
			"Analyzes a local meal image: detects food items, estimates portions, classifies healthiness, and computes per-item and total nutrition.",
			map[string]string{
				"api_key":  cfg.OpenAIAPIKey,
				"base_url": cfg.OpenAIBaseURL,
				"model":    cfg.VisionModel,
			},
			logger,
		)
		toolList = append(toolList, visionTool)
	}
	if cfg.TavilyAPIKey != "" {
		toolList = append(toolList, tools.NewSearchTool(
			"web_search_nutrition",
			"Searches the web for nutrition and food quality information: nutrition facts, dietary guidelines, brand or restaurant data, food safety, ingredients, and additives.",
			map[string]string{"tavily_api_key": cfg.TavilyAPIKey},
			logger,
		))
	}
	registry := tools.NewRegistry(toolList...)

	gateway, err := integrations.NewOpenAIGateway(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.ContextWindow, cfg.ModelTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize model gateway", zap.Error(err))
	}

	sessionStore := repositories.NewMemorySessionStore()
	chatService := services.NewChatService(sessionStore, gateway, registry, cfg.MaxToolRounds, cfg.ToolTimeout, logger)
	mealService := services.NewMealService(mealRepo, visionTool, cfg.UploadsDir, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	controllers.NewChatController(logger, chatService).RegisterRoutes(e)
	controllers.NewMealController(logger, mealService).RegisterRoutes(e)

	logger.Info("Starting server",
		zap.Int("port", cfg.Port),
		zap.String("storage", *storage),
		zap.Int("tools", len(toolList)))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
