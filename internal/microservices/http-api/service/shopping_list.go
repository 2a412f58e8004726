package service

import (
	"bytes"
	"context"
	"fmt"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
)

// ShoppingListFilename is the attachment name of the rendered list.
const ShoppingListFilename = "shopping_list.txt"

type ShoppingListService interface {
	// Aggregate sums ingredient amounts over the caller's cart.
	Aggregate(ctx context.Context, caller Caller) ([]models.ShoppingListItem, error)
	// Download renders the aggregated list as a text document.
	Download(ctx context.Context, caller Caller) ([]byte, error)
}

type shoppingListService struct {
	recipes repository.RecipeRepository
}

func NewShoppingListService(recipes repository.RecipeRepository) ShoppingListService {
	return &shoppingListService{recipes: recipes}
}

func (s *shoppingListService) Aggregate(ctx context.Context, caller Caller) ([]models.ShoppingListItem, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	return s.recipes.AggregateCart(ctx, caller.UserID)
}

func (s *shoppingListService) Download(ctx context.Context, caller Caller) ([]byte, error) {
	items, err := s.Aggregate(ctx, caller)
	if err != nil {
		return nil, err
	}
	return RenderShoppingList(items), nil
}

// RenderShoppingList writes one "<name> (<unit>) — <total>" line per item.
// An empty list renders as an empty document.
func RenderShoppingList(items []models.ShoppingListItem) []byte {
	var buf bytes.Buffer
	for _, item := range items {
		fmt.Fprintf(&buf, "%s (%s) — %d\n", item.Name, item.MeasurementUnit, item.TotalAmount)
	}
	return buf.Bytes()
}
