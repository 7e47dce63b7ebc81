package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"
	"github.com/nutriguide/nutriguide/internal/domain/interfaces"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

type MealService interface {
	// UploadMeal validates and stores a meal image, analyzes it with the
	// vision tool, and appends a meal record. Validation failures happen
	// before any side effect.
	UploadMeal(ctx context.Context, filename, description string, content io.Reader) (*entities.Meal, error)

	ListMeals(ctx context.Context) ([]*entities.Meal, error)
	GetMeal(ctx context.Context, id int) (*entities.Meal, error)
}

type mealService struct {
	meals      interfaces.MealRepository
	vision     entities.Tool // nil when no vision provider is configured
	uploadsDir string
	userID     string
	logger     *zap.Logger

	// uploadMu spans id allocation through record creation so concurrent
	// uploads cannot observe the same max id.
	uploadMu sync.Mutex
}

func NewMealService(meals interfaces.MealRepository, vision entities.Tool, uploadsDir string, logger *zap.Logger) MealService {
	return &mealService{
		meals:      meals,
		vision:     vision,
		uploadsDir: uploadsDir,
		userID:     LocalUserID(),
		logger:     logger,
	}
}

func (s *mealService) UploadMeal(ctx context.Context, filename, description string, content io.Reader) (*entities.Meal, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExtensions[ext] {
		return nil, errors.ValidationErrorf("only PNG, JPG, and JPEG images are accepted")
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.InternalErrorf("failed to read upload: %v", err)
	}

	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, errors.ValidationErrorf("invalid image file: %v", err)
	}

	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	id, err := s.meals.NextID(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return nil, errors.InternalErrorf("failed to create uploads directory: %v", err)
	}
	storedName := fmt.Sprintf("meals_%d_%s%s", id, time.Now().Format("20060102_150405"), ext)
	imagePath := filepath.Join(s.uploadsDir, storedName)
	if err := os.WriteFile(imagePath, data, 0644); err != nil {
		return nil, errors.InternalErrorf("failed to store image: %v", err)
	}

	if description == "" {
		description = "No description provided"
	}
	meal := entities.NewMeal(id, filename, description, imagePath, s.userID)
	meal.Analysis = s.analyze(imagePath, description)

	if err := s.meals.CreateMeal(ctx, meal); err != nil {
		os.Remove(imagePath)
		return nil, err
	}

	s.logger.Info("Uploaded and analyzed meal",
		zap.Int("id", id),
		zap.String("file", storedName),
		zap.String("size", humanize.Bytes(uint64(len(data)))))
	return meal, nil
}

// analyze runs the vision tool against the stored image. Failures are
// recorded on the meal as an error description instead of failing the
// upload.
func (s *mealService) analyze(imagePath, description string) string {
	if s.vision == nil {
		return toErrorJSON("vision analysis is not configured")
	}

	question := "Analyze this meal image"
	if description != "" && description != "No description provided" {
		question = description + " with this image"
	}

	arguments, err := json.Marshal(map[string]string{
		"image_path": imagePath,
		"question":   question,
	})
	if err != nil {
		return toErrorJSON(err.Error())
	}

	analysis, err := s.vision.Execute(string(arguments))
	if err != nil {
		s.logger.Warn("Vision analysis failed", zap.String("image_path", imagePath), zap.Error(err))
		return toErrorJSON(err.Error())
	}
	return analysis
}

func toErrorJSON(message string) string {
	data, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return `{"error":"analysis failed"}`
	}
	return string(data)
}

func (s *mealService) ListMeals(ctx context.Context) ([]*entities.Meal, error) {
	return s.meals.ListMeals(ctx)
}

func (s *mealService) GetMeal(ctx context.Context, id int) (*entities.Meal, error) {
	return s.meals.GetMeal(ctx, id)
}
