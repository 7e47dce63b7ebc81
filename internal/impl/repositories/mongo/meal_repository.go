package repositories_mongo

import (
	"context"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"
	"github.com/nutriguide/nutriguide/internal/domain/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoMealRepository struct {
	collection *mongo.Collection
}

func NewMongoMealRepository(collection *mongo.Collection) *MongoMealRepository {
	return &MongoMealRepository{
		collection: collection,
	}
}

func (r *MongoMealRepository) ListMeals(ctx context.Context) ([]*entities.Meal, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.InternalErrorf("failed to list meals: %v", err)
	}
	defer cursor.Close(ctx)

	var meals []*entities.Meal
	if err := cursor.All(ctx, &meals); err != nil {
		return nil, errors.InternalErrorf("failed to decode meals: %v", err)
	}
	return meals, nil
}

func (r *MongoMealRepository) GetMeal(ctx context.Context, id int) (*entities.Meal, error) {
	var meal entities.Meal
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&meal)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFoundErrorf("meal not found: %d", id)
	}
	if err != nil {
		return nil, errors.InternalErrorf("failed to get meal: %v", err)
	}
	return &meal, nil
}

// NextID returns max existing id + 1, reading the highest id directly from
// the collection.
func (r *MongoMealRepository) NextID(ctx context.Context) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}})

	var meal entities.Meal
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&meal)
	if err == mongo.ErrNoDocuments {
		return 1, nil
	}
	if err != nil {
		return 0, errors.InternalErrorf("failed to find max meal id: %v", err)
	}
	return meal.ID + 1, nil
}

func (r *MongoMealRepository) CreateMeal(ctx context.Context, meal *entities.Meal) error {
	err := r.collection.FindOne(ctx, bson.M{"id": meal.ID}).Err()
	if err == nil {
		return errors.InternalErrorf("meal id %d already exists", meal.ID)
	}
	if err != mongo.ErrNoDocuments {
		return errors.InternalErrorf("failed to check meal id: %v", err)
	}

	if _, err := r.collection.InsertOne(ctx, meal); err != nil {
		return errors.InternalErrorf("failed to insert meal: %v", err)
	}
	return nil
}

var _ interfaces.MealRepository = (*MongoMealRepository)(nil)
