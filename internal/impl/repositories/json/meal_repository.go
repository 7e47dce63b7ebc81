package repositories_json

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"
	"github.com/nutriguide/nutriguide/internal/domain/interfaces"
)

// JsonMealRepository stores meal records as a flat JSON array file. Records
// are never assumed sorted by id.
type JsonMealRepository struct {
	mu       sync.Mutex
	filePath string
	data     []*entities.Meal
}

func NewJSONMealRepository(dataDir string) (*JsonMealRepository, error) {
	filePath := filepath.Join(dataDir, "meals.json")
	repo := &JsonMealRepository{
		filePath: filePath,
		data:     []*entities.Meal{},
	}

	if err := repo.load(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *JsonMealRepository) load() error {
	data, err := os.ReadFile(r.filePath)
	if os.IsNotExist(err) {
		return nil // File doesn't exist yet, start with empty data
	}
	if err != nil {
		return errors.InternalErrorf("failed to read meals.json: %v", err)
	}

	var meals []*entities.Meal
	if err := json.Unmarshal(data, &meals); err != nil {
		return errors.InternalErrorf("failed to unmarshal meals.json: %v", err)
	}

	r.data = meals
	return nil
}

func (r *JsonMealRepository) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return errors.InternalErrorf("failed to marshal meals: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.filePath), 0755); err != nil {
		return errors.InternalErrorf("failed to create directory: %v", err)
	}

	if err := os.WriteFile(r.filePath, data, 0644); err != nil {
		return errors.InternalErrorf("failed to write meals.json: %v", err)
	}

	return nil
}

func (r *JsonMealRepository) ListMeals(ctx context.Context) ([]*entities.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mealsCopy := make([]*entities.Meal, len(r.data))
	for i, meal := range r.data {
		mealCopy := *meal
		mealsCopy[i] = &mealCopy
	}
	return mealsCopy, nil
}

func (r *JsonMealRepository) GetMeal(ctx context.Context, id int) (*entities.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, meal := range r.data {
		if meal.ID == id {
			mealCopy := *meal
			return &mealCopy, nil
		}
	}
	return nil, errors.NotFoundErrorf("meal not found: %d", id)
}

// NextID returns max existing id + 1 regardless of record order.
func (r *JsonMealRepository) NextID(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	maxID := 0
	for _, meal := range r.data {
		if meal.ID > maxID {
			maxID = meal.ID
		}
	}
	return maxID + 1, nil
}

func (r *JsonMealRepository) CreateMeal(ctx context.Context, meal *entities.Meal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.data {
		if existing.ID == meal.ID {
			return errors.InternalErrorf("meal id %d already exists", meal.ID)
		}
	}

	r.data = append(r.data, meal)
	if err := r.save(); err != nil {
		r.data = r.data[:len(r.data)-1]
		return err
	}
	return nil
}

var _ interfaces.MealRepository = (*JsonMealRepository)(nil)
