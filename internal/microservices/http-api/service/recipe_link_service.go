package service

import (
	"context"
	"errors"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
)

// RecipeLinkService adds and removes recipes from one of the caller's
// per-user collections.
type RecipeLinkService interface {
	// Add returns the linked recipe for the short projection.
	Add(ctx context.Context, caller Caller, recipeID int64) (*models.Recipe, error)
	Remove(ctx context.Context, caller Caller, recipeID int64) error
}

type recipeLinkService struct {
	label   string
	links   repository.RecipeLinkRepository
	recipes repository.RecipeRepository
}

func NewFavoriteService(links repository.RecipeLinkRepository, recipes repository.RecipeRepository) RecipeLinkService {
	return &recipeLinkService{label: "favorites", links: links, recipes: recipes}
}

func NewShoppingCartService(links repository.RecipeLinkRepository, recipes repository.RecipeRepository) RecipeLinkService {
	return &recipeLinkService{label: "shopping cart", links: links, recipes: recipes}
}

func (s *recipeLinkService) Add(ctx context.Context, caller Caller, recipeID int64) (*models.Recipe, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "recipe not found")
		}
		return nil, err
	}

	exists, err := s.links.Exists(ctx, caller.UserID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, newError(ErrConflict, "recipe is already in %s", s.label)
	}

	// the unique index settles concurrent adds
	if err := s.links.Add(ctx, caller.UserID, recipeID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "recipe is already in %s", s.label)
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeLinkService) Remove(ctx context.Context, caller Caller, recipeID int64) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if err := s.links.Remove(ctx, caller.UserID, recipeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "recipe is not in %s", s.label)
		}
		return err
	}
	return nil
}
