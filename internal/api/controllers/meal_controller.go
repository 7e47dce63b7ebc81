package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/nutriguide/nutriguide/internal/domain/errors"
	"github.com/nutriguide/nutriguide/internal/domain/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type MealController struct {
	logger      *zap.Logger
	mealService services.MealService
}

func NewMealController(logger *zap.Logger, mealService services.MealService) *MealController {
	return &MealController{
		logger:      logger,
		mealService: mealService,
	}
}

func (c *MealController) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/upload", c.Upload)
	e.GET("/api/meals", c.ListMeals)
	e.GET("/api/meals/:id", c.GetMeal)
}

type UploadResponse struct {
	Status       string `json:"status"`
	Detail       string `json:"detail"`
	DocumentPath string `json:"document_path,omitempty"`
	Analysis     string `json:"analysis,omitempty"`
}

func (c *MealController) Upload(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return c.handleError(ctx, errors.ValidationErrorf("missing 'file' form field"))
	}
	description := ctx.FormValue("description")

	file, err := fileHeader.Open()
	if err != nil {
		return c.handleError(ctx, errors.InternalErrorf("failed to open upload: %v", err))
	}
	defer file.Close()

	meal, err := c.mealService.UploadMeal(ctx.Request().Context(), fileHeader.Filename, description, file)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, UploadResponse{
		Status:       "success",
		Detail:       fmt.Sprintf("Meal image uploaded and analyzed successfully. ID: %d", meal.ID),
		DocumentPath: meal.ImagePath,
		Analysis:     meal.Analysis,
	})
}

func (c *MealController) ListMeals(ctx echo.Context) error {
	meals, err := c.mealService.ListMeals(ctx.Request().Context())
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, meals)
}

func (c *MealController) GetMeal(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return c.handleError(ctx, errors.ValidationErrorf("invalid meal id"))
	}

	meal, err := c.mealService.GetMeal(ctx.Request().Context(), id)
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, meal)
}

func (c *MealController) handleError(ctx echo.Context, err error) error {
	switch err.(type) {
	case *errors.ValidationError:
		c.logger.Warn("Rejected upload request", zap.Error(err))
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case *errors.NotFoundError:
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		c.logger.Error("Meal request failed", zap.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
