package dto

import (
	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/service"
	"foodgram/internal/storage"
)

// MediaURLFunc turns a stored media path into a public URL.
type MediaURLFunc func(path string) string

type RecipeIngredientRequest struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// RecipeRequest used for POST /api/recipes/ and PATCH /api/recipes/:id/.
// Image is a data URI; an empty value on PATCH keeps the current image.
type RecipeRequest struct {
	Ingredients []RecipeIngredientRequest `json:"ingredients"`
	Tags        []int64                   `json:"tags"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
}

func (r RecipeRequest) ToInput(image *storage.Image) service.RecipeInput {
	ingredients := make([]service.IngredientAmount, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		ingredients = append(ingredients, service.IngredientAmount{ID: i.ID, Amount: i.Amount})
	}
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Ingredients: ingredients,
		Tags:        r.Tags,
		Image:       image,
	}
}

type RecipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               int64                      `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// ShortRecipeResponse is the compact projection used by favorites, the
// shopping cart and subscriptions.
type ShortRecipeResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func FromRecipeView(v service.RecipeView, media MediaURLFunc) RecipeResponse {
	r := v.Recipe

	tags := make([]TagResponse, 0, len(r.Tags))
	for _, rt := range r.Tags {
		if rt.Tag != nil {
			tags = append(tags, FromTag(*rt.Tag))
		}
	}

	ingredients := make([]RecipeIngredientResponse, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		item := RecipeIngredientResponse{ID: ri.IngredientID, Amount: ri.Amount}
		if ri.Ingredient != nil {
			item.Name = ri.Ingredient.Name
			item.MeasurementUnit = ri.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, item)
	}

	var author UserResponse
	if r.Author != nil {
		author = FromUser(*r.Author, v.AuthorSubscribed)
	}

	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             r.Name,
		Image:            media(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func FromRecipeViews(list []service.RecipeView, media MediaURLFunc) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(list))
	for _, v := range list {
		out = append(out, FromRecipeView(v, media))
	}
	return out
}

func FromShortRecipe(r *models.Recipe, media MediaURLFunc) ShortRecipeResponse {
	return ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       media(r.Image),
		CookingTime: r.CookingTime,
	}
}
