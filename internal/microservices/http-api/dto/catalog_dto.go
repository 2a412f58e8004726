package dto

import (
	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/service"
)

type TagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// CreateTagRequest used for POST /api/tags/
type CreateTagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color" binding:"required"`
	Slug  string `json:"slug" binding:"required"`
}

func (r CreateTagRequest) ToInput() service.TagInput {
	return service.TagInput{Name: r.Name, Color: r.Color, Slug: r.Slug}
}

func FromTag(t models.Tag) TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func FromTags(list []models.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(list))
	for _, t := range list {
		out = append(out, FromTag(t))
	}
	return out
}

type IngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// CreateIngredientRequest used for POST /api/ingredients/
type CreateIngredientRequest struct {
	Name            string `json:"name" binding:"required"`
	MeasurementUnit string `json:"measurement_unit"`
}

func (r CreateIngredientRequest) ToInput() service.IngredientInput {
	return service.IngredientInput{Name: r.Name, MeasurementUnit: r.MeasurementUnit}
}

func FromIngredient(i models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func FromIngredients(list []models.Ingredient) []IngredientResponse {
	out := make([]IngredientResponse, 0, len(list))
	for _, i := range list {
		out = append(out, FromIngredient(i))
	}
	return out
}
