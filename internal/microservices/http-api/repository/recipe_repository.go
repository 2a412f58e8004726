package repository

import (
	"context"
	"fmt"

	"foodgram/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows List. Zero values disable a predicate.
type RecipeFilter struct {
	AuthorID    int64
	TagSlugs    []string // any match
	FavoritedBy int64
	InCartOf    int64
}

type RecipeRepository interface {
	// Create inserts the recipe and its Ingredients/Tags rows atomically.
	Create(ctx context.Context, recipe *models.Recipe) error
	// Update rewrites the recipe columns and replaces every join row atomically.
	Update(ctx context.Context, recipe *models.Recipe) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	List(ctx context.Context, filter RecipeFilter, offset, limit int) ([]models.Recipe, int64, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	ListByAuthor(ctx context.Context, authorID int64, limit int) ([]models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int64, error)
	AggregateCart(ctx context.Context, userID int64) ([]models.ShoppingListItem, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	ingredients, tags := recipe.Ingredients, recipe.Tags

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", translate(err))
		}
		return insertJoinRows(tx, recipe.ID, ingredients, tags)
	})
	if err != nil {
		return err
	}

	recipe.Ingredients, recipe.Tags = ingredients, tags
	return nil
}

func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	ingredients, tags := recipe.Ingredients, recipe.Tags

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Recipe{}).
			Where("id = ?", recipe.ID).
			Updates(map[string]any{
				"name":         recipe.Name,
				"text":         recipe.Text,
				"image":        recipe.Image,
				"cooking_time": recipe.CookingTime,
			})
		if result.Error != nil {
			return fmt.Errorf("update recipe: %w", translate(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientInRecipe{}).Error; err != nil {
			return fmt.Errorf("clear recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("clear recipe tags: %w", err)
		}
		return insertJoinRows(tx, recipe.ID, ingredients, tags)
	})
	if err != nil {
		return err
	}

	recipe.Ingredients, recipe.Tags = ingredients, tags
	return nil
}

func insertJoinRows(tx *gorm.DB, recipeID int64, ingredients []models.IngredientInRecipe, tags []models.RecipeTag) error {
	ingredientRows := make([]models.IngredientInRecipe, 0, len(ingredients))
	for _, in := range ingredients {
		ingredientRows = append(ingredientRows, models.IngredientInRecipe{
			RecipeID:     recipeID,
			IngredientID: in.IngredientID,
			Amount:       in.Amount,
		})
	}
	tagRows := make([]models.RecipeTag, 0, len(tags))
	for _, t := range tags {
		tagRows = append(tagRows, models.RecipeTag{RecipeID: recipeID, TagID: t.TagID})
	}

	if len(ingredientRows) > 0 {
		if err := tx.Omit(clause.Associations).Create(&ingredientRows).Error; err != nil {
			return fmt.Errorf("insert recipe ingredients: %w", translate(err))
		}
	}
	if len(tagRows) > 0 {
		if err := tx.Omit(clause.Associations).Create(&tagRows).Error; err != nil {
			return fmt.Errorf("insert recipe tags: %w", translate(err))
		}
	}
	return nil
}

func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Recipe{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete recipe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// withDetails preloads everything the full recipe representation needs.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_in_recipe.id ASC") }).
		Preload("Ingredients.Ingredient").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.id ASC") }).
		Preload("Tags.Tag")
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withDetails(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	var list []models.Recipe
	var total int64

	scoped := func() *gorm.DB {
		return applyRecipeFilter(r.db.WithContext(ctx).Model(&models.Recipe{}), filter)
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	if err := withDetails(scoped()).
		Order("pub_date DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	return list, total, nil
}

func applyRecipeFilter(q *gorm.DB, f RecipeFilter) *gorm.DB {
	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		q = q.Where("recipes.id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).
				Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", f.TagSlugs))
	}
	if f.FavoritedBy != 0 {
		q = q.Where("recipes.id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).
				Table("favorites").
				Select("recipe_id").
				Where("user_id = ?", f.FavoritedBy))
	}
	if f.InCartOf != 0 {
		q = q.Where("recipes.id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).
				Table("shopping_cart").
				Select("recipe_id").
				Where("user_id = ?", f.InCartOf))
	}
	return q
}

func (r *recipeRepository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check recipe name: %w", err)
	}
	return count > 0, nil
}

// ListByAuthor returns the newest recipes of an author; limit <= 0 means all.
func (r *recipeRepository) ListByAuthor(ctx context.Context, authorID int64, limit int) ([]models.Recipe, error) {
	var list []models.Recipe
	q := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list recipes by author: %w", err)
	}
	return list, nil
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID int64
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count recipes by author: %w", err)
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

// AggregateCart sums ingredient amounts over every recipe in the user's
// shopping cart, grouped by ingredient name and unit, ordered by name.
func (r *recipeRepository) AggregateCart(ctx context.Context, userID int64) ([]models.ShoppingListItem, error) {
	items := []models.ShoppingListItem{}
	if err := r.db.WithContext(ctx).
		Table("ingredient_in_recipe").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_in_recipe.amount) AS total_amount").
		Joins("JOIN ingredients ON ingredients.id = ingredient_in_recipe.ingredient_id").
		Joins("JOIN shopping_cart ON shopping_cart.recipe_id = ingredient_in_recipe.recipe_id").
		Where("shopping_cart.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC").
		Order("ingredients.measurement_unit ASC").
		Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("aggregate shopping cart: %w", err)
	}
	return items, nil
}
