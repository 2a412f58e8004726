package models

import "time"

type Recipe struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID    int64     `json:"author_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	Image       string    `json:"image" gorm:"size:255"`
	CookingTime int       `json:"cooking_time" gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1"`
	PubDate     time.Time `json:"pub_date" gorm:"not null;index"`

	// associations
	Author      *User                `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Ingredients []IngredientInRecipe `json:"ingredients,omitempty" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tags        []RecipeTag          `json:"tags,omitempty" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// IngredientInRecipe is the through row between a recipe and an ingredient.
type IngredientInRecipe struct {
	ID           int64 `json:"id" gorm:"primaryKey;autoIncrement"`
	RecipeID     int64 `json:"recipe_id" gorm:"not null;uniqueIndex:idx_ingredient_in_recipe_unique"`
	IngredientID int64 `json:"ingredient_id" gorm:"not null;uniqueIndex:idx_ingredient_in_recipe_unique;index"`
	Amount       int   `json:"amount" gorm:"not null;check:chk_ingredient_in_recipe_amount,amount >= 1"`

	Ingredient *Ingredient `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

func (IngredientInRecipe) TableName() string {
	return "ingredient_in_recipe"
}

type RecipeTag struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RecipeID  int64     `json:"recipe_id" gorm:"not null;uniqueIndex:idx_recipe_tags_unique"`
	TagID     int64     `json:"tag_id" gorm:"not null;uniqueIndex:idx_recipe_tags_unique;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Tag *Tag `json:"tag,omitempty" gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}
