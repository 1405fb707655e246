package models

import (
	"time"
)

// AnonymousAuthor is the display handle used when the author has no username
const AnonymousAuthor = "anon"

// Recipe is a published recipe. Only Likes changes after creation.
type Recipe struct {
	ID          int64     `bson:"_id" json:"id"`
	AuthorID    string    `bson:"author_id" json:"author_id"`
	Author      string    `bson:"author" json:"author"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	PhotoID     string    `bson:"photo_id,omitempty" json:"photo_id,omitempty"`
	PhotoURL    string    `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Caption     string    `bson:"caption" json:"caption"`
	Likes       int64     `bson:"likes" json:"likes"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// HasPhoto reports whether the recipe carries any photo reference
func (r *Recipe) HasPhoto() bool {
	return r.PhotoID != "" || r.PhotoURL != ""
}

// NewRecipe is the input for creating a recipe
type NewRecipe struct {
	AuthorID    string
	Author      string
	Title       string
	Description string
	PhotoID     string
	PhotoURL    string
}
