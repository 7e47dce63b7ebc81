package entities

import "time"

// Meal is one uploaded meal photo plus its vision analysis. Records live in
// a flat JSON array file or a Mongo collection, identified by an
// incrementing integer id.
type Meal struct {
	ID          int       `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	ImagePath   string    `json:"image_path" bson:"image_path"`
	UploadDate  time.Time `json:"upload_date" bson:"upload_date"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Analysis    string    `json:"analysis_response,omitempty" bson:"analysis_response,omitempty"`
}

func NewMeal(id int, name, description, imagePath, userID string) *Meal {
	return &Meal{
		ID:          id,
		Name:        name,
		Description: description,
		ImagePath:   imagePath,
		UploadDate:  time.Now(),
		UserID:      userID,
	}
}
