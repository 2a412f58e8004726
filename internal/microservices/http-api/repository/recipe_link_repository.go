package repository

import (
	"context"
	"fmt"

	"foodgram/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// RecipeLinkRepository stores (user, recipe) pairs for one relation kind.
// Favorites and the shopping cart share this implementation; they differ
// only in table and row type.
type RecipeLinkRepository interface {
	Add(ctx context.Context, userID, recipeID int64) error
	Remove(ctx context.Context, userID, recipeID int64) error
	Exists(ctx context.Context, userID, recipeID int64) (bool, error)
	// LinkedRecipeIDs reports which of recipeIDs the user has linked.
	LinkedRecipeIDs(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error)
}

type recipeLinkRepository struct {
	db     *gorm.DB
	table  string
	newRow func(userID, recipeID int64) any
}

func NewFavoriteRepository(db *gorm.DB) RecipeLinkRepository {
	return &recipeLinkRepository{
		db:    db,
		table: models.Favorite{}.TableName(),
		newRow: func(userID, recipeID int64) any {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

func NewShoppingCartRepository(db *gorm.DB) RecipeLinkRepository {
	return &recipeLinkRepository{
		db:    db,
		table: models.ShoppingCart{}.TableName(),
		newRow: func(userID, recipeID int64) any {
			return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
		},
	}
}

func (r *recipeLinkRepository) Add(ctx context.Context, userID, recipeID int64) error {
	if err := r.db.WithContext(ctx).Create(r.newRow(userID, recipeID)).Error; err != nil {
		return fmt.Errorf("add to %s: %w", r.table, translate(err))
	}
	return nil
}

func (r *recipeLinkRepository) Remove(ctx context.Context, userID, recipeID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(r.newRow(0, 0))

	if result.Error != nil {
		return fmt.Errorf("remove from %s: %w", r.table, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recipeLinkRepository) Exists(ctx context.Context, userID, recipeID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table(r.table).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeLinkRepository) LinkedRecipeIDs(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]bool, error) {
	linked := make(map[int64]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return linked, nil
	}

	var ids []int64
	if err := r.db.WithContext(ctx).
		Table(r.table).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load %s links: %w", r.table, err)
	}
	for _, id := range ids {
		linked[id] = true
	}
	return linked, nil
}
