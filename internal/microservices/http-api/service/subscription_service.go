package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
)

// SubscriptionView is a followed author with a preview of their recipes.
type SubscriptionView struct {
	Author       models.User
	IsSubscribed bool
	Recipes      []models.Recipe
	RecipesCount int64
}

type SubscriptionService interface {
	// Subscribe makes the caller follow authorID. recipeLimit truncates the
	// recipe preview; 0 means no limit.
	Subscribe(ctx context.Context, caller Caller, authorID int64, recipeLimit int) (*SubscriptionView, error)
	Unsubscribe(ctx context.Context, caller Caller, authorID int64) error
	List(ctx context.Context, caller Caller, page Page, recipeLimit int) ([]SubscriptionView, int64, error)
}

// ParseRecipeLimit reads the recipe_limit query value. Empty means no limit.
func ParseRecipeLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid("recipe_limit", "must be a positive integer")
	}
	return n, nil
}

type subscriptionService struct {
	subs    repository.SubscriptionRepository
	users   repository.UserRepository
	recipes repository.RecipeRepository
}

func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	recipes repository.RecipeRepository,
) SubscriptionService {
	return &subscriptionService{subs: subs, users: users, recipes: recipes}
}

func (s *subscriptionService) Subscribe(ctx context.Context, caller Caller, authorID int64, recipeLimit int) (*SubscriptionView, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}
	if author.ID == caller.UserID {
		return nil, invalid("author", "you cannot subscribe to yourself")
	}

	exists, err := s.subs.Exists(ctx, caller.UserID, author.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid("author", "you are already subscribed to this user")
	}
	if _, err := s.subs.Create(ctx, caller.UserID, author.ID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("author", "you are already subscribed to this user")
		}
		return nil, err
	}

	views, err := s.views(ctx, caller, []models.User{*author}, recipeLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, caller Caller, authorID int64) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if err := s.subs.Delete(ctx, caller.UserID, authorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "subscription not found")
		}
		return err
	}
	return nil
}

func (s *subscriptionService) List(ctx context.Context, caller Caller, page Page, recipeLimit int) ([]SubscriptionView, int64, error) {
	if err := requireAuth(caller); err != nil {
		return nil, 0, err
	}
	subs, total, err := s.subs.ListByUser(ctx, caller.UserID, page.Offset(), page.Size)
	if err != nil {
		return nil, 0, err
	}

	authors := make([]models.User, 0, len(subs))
	for _, sub := range subs {
		if sub.Author != nil {
			authors = append(authors, *sub.Author)
		}
	}
	views, err := s.views(ctx, caller, authors, recipeLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// views builds the projection; is_subscribed is recomputed for the viewer
// rather than assumed.
func (s *subscriptionService) views(ctx context.Context, viewer Caller, authors []models.User, recipeLimit int) ([]SubscriptionView, error) {
	ids := make([]int64, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	subscribed, err := s.subs.SubscribedAuthorIDs(ctx, viewer.UserID, ids)
	if err != nil {
		return nil, err
	}
	counts, err := s.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]SubscriptionView, 0, len(authors))
	for _, a := range authors {
		recipes, err := s.recipes.ListByAuthor(ctx, a.ID, recipeLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, SubscriptionView{
			Author:       a,
			IsSubscribed: subscribed[a.ID],
			Recipes:      recipes,
			RecipesCount: counts[a.ID],
		})
	}
	return out, nil
}
