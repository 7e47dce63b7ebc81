package interfaces

import (
	"context"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
)

type MealRepository interface {
	ListMeals(ctx context.Context) ([]*entities.Meal, error)
	GetMeal(ctx context.Context, id int) (*entities.Meal, error)

	// NextID returns max existing id + 1, deterministically even when
	// stored records are unsorted.
	NextID(ctx context.Context) (int, error)

	CreateMeal(ctx context.Context, meal *entities.Meal) error
}
