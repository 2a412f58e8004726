package handler

import (
	"context"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/service"

	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (service.Caller, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(service.Caller), args.Error(1)
}

func (m *MockAuthService) SetPassword(ctx context.Context, caller service.Caller, current, next string) error {
	return m.Called(ctx, caller, current, next).Error(0)
}

// MockRecipeService mocks the RecipeService interface
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) List(ctx context.Context, caller service.Caller, filter service.RecipeFilter, page service.Page) ([]service.RecipeView, int64, error) {
	args := m.Called(ctx, caller, filter, page)
	views, _ := args.Get(0).([]service.RecipeView)
	return views, args.Get(1).(int64), args.Error(2)
}

func (m *MockRecipeService) Get(ctx context.Context, caller service.Caller, id int64) (*service.RecipeView, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeView), args.Error(1)
}

func (m *MockRecipeService) Create(ctx context.Context, caller service.Caller, in service.RecipeInput) (*service.RecipeView, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeView), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, caller service.Caller, id int64, in service.RecipeInput) (*service.RecipeView, error) {
	args := m.Called(ctx, caller, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecipeView), args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, caller service.Caller, id int64) error {
	return m.Called(ctx, caller, id).Error(0)
}

// MockLinkService mocks RecipeLinkService
type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) Add(ctx context.Context, caller service.Caller, recipeID int64) (*models.Recipe, error) {
	args := m.Called(ctx, caller, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockLinkService) Remove(ctx context.Context, caller service.Caller, recipeID int64) error {
	return m.Called(ctx, caller, recipeID).Error(0)
}

// MockShoppingListService mocks ShoppingListService
type MockShoppingListService struct {
	mock.Mock
}

func (m *MockShoppingListService) Aggregate(ctx context.Context, caller service.Caller) ([]models.ShoppingListItem, error) {
	args := m.Called(ctx, caller)
	items, _ := args.Get(0).([]models.ShoppingListItem)
	return items, args.Error(1)
}

func (m *MockShoppingListService) Download(ctx context.Context, caller service.Caller) ([]byte, error) {
	args := m.Called(ctx, caller)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}
