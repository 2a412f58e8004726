package service

import (
	"bytes"
	"context"
	"testing"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/storage"
	"foodgram/internal/testdb"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// env wires every service against a fresh in-memory database.
type env struct {
	db         *gorm.DB
	images     *storage.MediaStore
	mediaRoot  string
	users      repository.UserRepository
	tagsRepo   repository.TagRepository
	ingrRepo   repository.IngredientRepository
	recipeRepo repository.RecipeRepository
	userSvc    UserService
	catalog    CatalogService
	recipes    RecipeService
	favorites  RecipeLinkService
	cart       RecipeLinkService
	shopping   ShoppingListService
	subs       SubscriptionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	root := t.TempDir()
	images, err := storage.NewMediaStore(root, "/media/")
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	tags := repository.NewTagRepository(db)
	ingredients := repository.NewIngredientRepository(db)
	recipes := repository.NewRecipeRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	cart := repository.NewShoppingCartRepository(db)
	subs := repository.NewSubscriptionRepository(db)

	return &env{
		db:         db,
		images:     images,
		mediaRoot:  root,
		users:      users,
		tagsRepo:   tags,
		ingrRepo:   ingredients,
		recipeRepo: recipes,
		userSvc:    NewUserService(users, subs),
		catalog:    NewCatalogService(tags, ingredients, discardLogger()),
		recipes: NewRecipeService(RecipeDeps{
			Recipes:       recipes,
			Ingredients:   ingredients,
			Tags:          tags,
			Favorites:     favorites,
			Cart:          cart,
			Subscriptions: subs,
			Images:        images,
		}, discardLogger()),
		favorites: NewFavoriteService(favorites, recipes),
		cart:      NewShoppingCartService(cart, recipes),
		shopping:  NewShoppingListService(recipes),
		subs:      NewSubscriptionService(subs, users, recipes),
	}
}

func (e *env) user(t *testing.T, name string) Caller {
	t.Helper()
	u := &models.User{
		Email:     name + "@example.com",
		Username:  name,
		FirstName: name,
		LastName:  "Test",
		Password:  "x",
		Role:      models.RoleUser,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return Caller{UserID: u.ID, Role: u.Role}
}

func (e *env) ingredient(t *testing.T, name, unit string) int64 {
	t.Helper()
	i := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, e.ingrRepo.Create(context.Background(), i))
	return i.ID
}

func (e *env) tag(t *testing.T, name, slug string) int64 {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug, Color: "#49B64E"}
	require.NoError(t, e.tagsRepo.Create(context.Background(), tag))
	return tag.ID
}

func (e *env) createRecipe(t *testing.T, caller Caller, in RecipeInput) *RecipeView {
	t.Helper()
	view, err := e.recipes.Create(context.Background(), caller, in)
	require.NoError(t, err)
	return view
}

var testPNG = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 16)...)
