package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/storage"
)

// ImageStore persists recipe images. Paths are relative to the media root.
type ImageStore interface {
	Save(img *storage.Image) (string, error)
	Delete(path string) error
}

// IngredientAmount references a catalog ingredient with a quantity.
type IngredientAmount struct {
	ID     int64
	Amount int
}

// RecipeInput is the writable part of a recipe. A nil Image on update keeps
// the current picture.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Ingredients []IngredientAmount
	Tags        []int64
	Image       *storage.Image
}

// RecipeFilter is the public list filter. The flag filters need an
// authenticated caller and are ignored otherwise.
type RecipeFilter struct {
	AuthorID         int64
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeView is a recipe plus the viewer dependent flags.
type RecipeView struct {
	Recipe           models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

type RecipeService interface {
	List(ctx context.Context, caller Caller, filter RecipeFilter, page Page) ([]RecipeView, int64, error)
	Get(ctx context.Context, caller Caller, id int64) (*RecipeView, error)
	Create(ctx context.Context, caller Caller, in RecipeInput) (*RecipeView, error)
	Update(ctx context.Context, caller Caller, id int64, in RecipeInput) (*RecipeView, error)
	Delete(ctx context.Context, caller Caller, id int64) error
}

type recipeService struct {
	recipes     repository.RecipeRepository
	ingredients repository.IngredientRepository
	tags        repository.TagRepository
	favorites   repository.RecipeLinkRepository
	cart        repository.RecipeLinkRepository
	subs        repository.SubscriptionRepository
	images      ImageStore
	log         *slog.Logger
	now         func() time.Time
}

// RecipeDeps groups the collaborators of the recipe service.
type RecipeDeps struct {
	Recipes       repository.RecipeRepository
	Ingredients   repository.IngredientRepository
	Tags          repository.TagRepository
	Favorites     repository.RecipeLinkRepository
	Cart          repository.RecipeLinkRepository
	Subscriptions repository.SubscriptionRepository
	Images        ImageStore
}

func NewRecipeService(deps RecipeDeps, log *slog.Logger) RecipeService {
	return &recipeService{
		recipes:     deps.Recipes,
		ingredients: deps.Ingredients,
		tags:        deps.Tags,
		favorites:   deps.Favorites,
		cart:        deps.Cart,
		subs:        deps.Subscriptions,
		images:      deps.Images,
		log:         log,
		now:         time.Now,
	}
}

func (s *recipeService) List(ctx context.Context, caller Caller, filter RecipeFilter, page Page) ([]RecipeView, int64, error) {
	q := repository.RecipeFilter{
		AuthorID: filter.AuthorID,
		TagSlugs: filter.TagSlugs,
	}
	if caller.Authenticated() {
		if filter.IsFavorited {
			q.FavoritedBy = caller.UserID
		}
		if filter.IsInShoppingCart {
			q.InCartOf = caller.UserID
		}
	}

	recipes, total, err := s.recipes.List(ctx, q, page.Offset(), page.Size)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, caller, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *recipeService) Get(ctx context.Context, caller Caller, id int64) (*RecipeView, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, caller, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *recipeService) load(ctx context.Context, id int64) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "recipe not found")
		}
		return nil, err
	}
	return recipe, nil
}

// views attaches the caller dependent flags with one query per flag.
func (s *recipeService) views(ctx context.Context, caller Caller, recipes []models.Recipe) ([]RecipeView, error) {
	recipeIDs := make([]int64, 0, len(recipes))
	authorIDs := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, err := s.favorites.LinkedRecipeIDs(ctx, caller.UserID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.cart.LinkedRecipeIDs(ctx, caller.UserID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.subs.SubscribedAuthorIDs(ctx, caller.UserID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]RecipeView, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, RecipeView{
			Recipe:           r,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			AuthorSubscribed: subscribed[r.AuthorID],
		})
	}
	return out, nil
}

func (s *recipeService) validate(ctx context.Context, in *RecipeInput, excludeID int64) error {
	return runValidators(ctx, in, recipeValidators(s.ingredients, s.tags, s.recipes, excludeID))
}

func joinRows(in RecipeInput) ([]models.IngredientInRecipe, []models.RecipeTag) {
	ingredients := make([]models.IngredientInRecipe, 0, len(in.Ingredients))
	for _, item := range in.Ingredients {
		ingredients = append(ingredients, models.IngredientInRecipe{IngredientID: item.ID, Amount: item.Amount})
	}
	tags := make([]models.RecipeTag, 0, len(in.Tags))
	for _, id := range in.Tags {
		tags = append(tags, models.RecipeTag{TagID: id})
	}
	return ingredients, tags
}

func (s *recipeService) Create(ctx context.Context, caller Caller, in RecipeInput) (*RecipeView, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in, 0); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    caller.UserID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		PubDate:     s.now().UTC(),
	}
	recipe.Ingredients, recipe.Tags = joinRows(in)

	if in.Image != nil {
		path, err := s.images.Save(in.Image)
		if err != nil {
			return nil, err
		}
		recipe.Image = path
	}

	if err := s.recipes.Create(ctx, recipe); err != nil {
		s.discardImage(recipe.Image)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("ingredients", "duplicate ingredient or tag")
		}
		return nil, err
	}

	s.log.Info("recipe created", "recipe_id", recipe.ID, "author_id", caller.UserID)
	return s.Get(ctx, caller, recipe.ID)
}

func (s *recipeService) Update(ctx context.Context, caller Caller, id int64, in RecipeInput) (*RecipeView, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != caller.UserID {
		return nil, newError(ErrForbidden, "only the author can change this recipe")
	}
	if err := s.validate(ctx, &in, id); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		ID:          id,
		AuthorID:    existing.AuthorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       existing.Image,
		PubDate:     existing.PubDate,
	}
	recipe.Ingredients, recipe.Tags = joinRows(in)

	replaced := ""
	if in.Image != nil {
		path, err := s.images.Save(in.Image)
		if err != nil {
			return nil, err
		}
		recipe.Image = path
		replaced = existing.Image
	}

	if err := s.recipes.Update(ctx, recipe); err != nil {
		if in.Image != nil {
			s.discardImage(recipe.Image)
		}
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(ErrNotFound, "recipe not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, invalid("ingredients", "duplicate ingredient or tag")
		}
		return nil, err
	}
	s.discardImage(replaced)

	s.log.Info("recipe updated", "recipe_id", id, "author_id", caller.UserID)
	return s.Get(ctx, caller, id)
}

func (s *recipeService) Delete(ctx context.Context, caller Caller, id int64) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != caller.UserID {
		return newError(ErrForbidden, "only the author can delete this recipe")
	}

	if err := s.recipes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "recipe not found")
		}
		return err
	}
	s.discardImage(existing.Image)

	s.log.Info("recipe deleted", "recipe_id", id, "author_id", caller.UserID)
	return nil
}

// discardImage removes a file that no committed row points at.
func (s *recipeService) discardImage(path string) {
	if path == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(path); err != nil {
		s.log.Warn("failed to remove image", "path", path, "error", err)
	}
}
