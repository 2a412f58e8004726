package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"foodgram/internal/microservices/http-api/repository"
)

const maxRecipeNameLength = 200

// recipeValidator is one named step of the recipe validation pipeline.
type recipeValidator struct {
	name  string
	check func(ctx context.Context, in *RecipeInput) error
}

// runValidators stops at the first failing step.
func runValidators(ctx context.Context, in *RecipeInput, steps []recipeValidator) error {
	for _, step := range steps {
		if err := step.check(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

// recipeValidators returns the pipeline for a create (excludeID 0) or for an
// update of recipe excludeID. Cheap shape checks run before the ones that
// hit the database.
func recipeValidators(
	ingredients repository.IngredientRepository,
	tags repository.TagRepository,
	recipes repository.RecipeRepository,
	excludeID int64,
) []recipeValidator {
	return []recipeValidator{
		{name: "name", check: validateRecipeName},
		{name: "text", check: validateRecipeText},
		{name: "cooking_time", check: validateCookingTime},
		{name: "ingredients_present", check: validateIngredientsPresent},
		{name: "ingredient_amounts", check: validateIngredientAmounts},
		{name: "ingredients_unique", check: validateIngredientsUnique},
		{name: "tags_present", check: validateTagsPresent},
		{name: "tags_unique", check: validateTagsUnique},
		{name: "ingredients_exist", check: ingredientsExist(ingredients)},
		{name: "tags_exist", check: tagsExist(tags)},
		{name: "name_unique", check: recipeNameUnique(recipes, excludeID)},
	}
}

func validateRecipeName(_ context.Context, in *RecipeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "this field is required")
	}
	if utf8.RuneCountInString(in.Name) > maxRecipeNameLength {
		return invalid("name", "ensure this field has no more than %d characters", maxRecipeNameLength)
	}
	return nil
}

func validateRecipeText(_ context.Context, in *RecipeInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return invalid("text", "this field is required")
	}
	return nil
}

func validateCookingTime(_ context.Context, in *RecipeInput) error {
	if in.CookingTime < 1 {
		return invalid("cooking_time", "cooking time must be at least 1 minute")
	}
	return nil
}

func validateIngredientsPresent(_ context.Context, in *RecipeInput) error {
	if len(in.Ingredients) == 0 {
		return invalid("ingredients", "a recipe needs at least one ingredient")
	}
	return nil
}

func validateIngredientAmounts(_ context.Context, in *RecipeInput) error {
	for _, item := range in.Ingredients {
		if item.Amount < 1 {
			return invalid("ingredients", "amount of ingredient %d must be at least 1", item.ID)
		}
	}
	return nil
}

func validateIngredientsUnique(_ context.Context, in *RecipeInput) error {
	seen := make(map[int64]bool, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if seen[item.ID] {
			return invalid("ingredients", "ingredient %d is listed more than once", item.ID)
		}
		seen[item.ID] = true
	}
	return nil
}

func validateTagsPresent(_ context.Context, in *RecipeInput) error {
	if len(in.Tags) == 0 {
		return invalid("tags", "a recipe needs at least one tag")
	}
	return nil
}

func validateTagsUnique(_ context.Context, in *RecipeInput) error {
	seen := make(map[int64]bool, len(in.Tags))
	for _, id := range in.Tags {
		if seen[id] {
			return invalid("tags", "tag %d is listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}

func ingredientsExist(repo repository.IngredientRepository) func(context.Context, *RecipeInput) error {
	return func(ctx context.Context, in *RecipeInput) error {
		ids := make([]int64, 0, len(in.Ingredients))
		for _, item := range in.Ingredients {
			ids = append(ids, item.ID)
		}
		found, err := repo.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		known := make(map[int64]bool, len(found))
		for _, f := range found {
			known[f.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return invalid("ingredients", "ingredient %d does not exist", id)
			}
		}
		return nil
	}
}

func tagsExist(repo repository.TagRepository) func(context.Context, *RecipeInput) error {
	return func(ctx context.Context, in *RecipeInput) error {
		found, err := repo.FindByIDs(ctx, in.Tags)
		if err != nil {
			return err
		}
		known := make(map[int64]bool, len(found))
		for _, f := range found {
			known[f.ID] = true
		}
		for _, id := range in.Tags {
			if !known[id] {
				return invalid("tags", "tag %d does not exist", id)
			}
		}
		return nil
	}
}

func recipeNameUnique(repo repository.RecipeRepository, excludeID int64) func(context.Context, *RecipeInput) error {
	return func(ctx context.Context, in *RecipeInput) error {
		taken, err := repo.NameTaken(ctx, in.Name, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return invalid("name", "a recipe with this name already exists")
		}
		return nil
	}
}
