package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	users       UserRepository
	tags        TagRepository
	ingredients IngredientRepository
	recipes     RecipeRepository
	favorites   RecipeLinkRepository
	cart        RecipeLinkRepository
	subs        SubscriptionRepository
}

func newFixture(t *testing.T) *fixture {
	db := testdb.Open(t)
	return &fixture{
		db:          db,
		users:       NewUserRepository(db),
		tags:        NewTagRepository(db),
		ingredients: NewIngredientRepository(db),
		recipes:     NewRecipeRepository(db),
		favorites:   NewFavoriteRepository(db),
		cart:        NewShoppingCartRepository(db),
		subs:        NewSubscriptionRepository(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	u := &models.User{
		Email:     name + "@example.com",
		Username:  name,
		FirstName: "First",
		LastName:  "Last",
		Password:  "hash",
		Role:      models.RoleUser,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) ingredient(t *testing.T, name, unit string) *models.Ingredient {
	i := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, f.ingredients.Create(context.Background(), i))
	return i
}

func (f *fixture) tag(t *testing.T, name, slug string) *models.Tag {
	tag := &models.Tag{Name: name, Slug: slug, Color: "#E26C2D"}
	require.NoError(t, f.tags.Create(context.Background(), tag))
	return tag
}

func (f *fixture) recipe(t *testing.T, author *models.User, name string, pub time.Time, amounts map[int64]int, tagIDs ...int64) *models.Recipe {
	r := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "text",
		CookingTime: 10,
		PubDate:     pub,
	}
	for id, amount := range amounts {
		r.Ingredients = append(r.Ingredients, models.IngredientInRecipe{IngredientID: id, Amount: amount})
	}
	for _, id := range tagIDs {
		r.Tags = append(r.Tags, models.RecipeTag{TagID: id})
	}
	require.NoError(t, f.recipes.Create(context.Background(), r))
	return r
}

func countRows(t *testing.T, db *gorm.DB, model any, recipeID int64) int64 {
	var n int64
	require.NoError(t, db.Model(model).Where("recipe_id = ?", recipeID).Count(&n).Error)
	return n
}

func TestUserRepository_CaseInsensitiveLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")

	found, err := f.users.FindByEmail(ctx, "ALICE@Example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	found, err = f.users.FindByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = f.users.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.user(t, "bob")

	dup := &models.User{Email: "bob@example.com", Username: "other", FirstName: "a", LastName: "b", Password: "x"}
	err := f.users.Create(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_ListAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a")
	f.user(t, "b")
	f.user(t, "c")

	users, total, err := f.users.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 1)
	assert.Equal(t, "b", users[0].Username)

	require.NoError(t, f.users.UpdatePassword(ctx, a.ID, "new-hash"))
	require.NoError(t, f.users.UpdateRole(ctx, "A@example.com", models.RoleAdmin))
	got, err := f.users.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)
	assert.True(t, got.IsAdmin())

	assert.ErrorIs(t, f.users.UpdateRole(ctx, "nobody@example.com", models.RoleAdmin), ErrNotFound)
}

func TestIngredientRepository_ListFiltersByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ingredient(t, "sugar", "g")
	f.ingredient(t, "brown sugar", "g")
	f.ingredient(t, "salt", "g")
	f.ingredient(t, "100%_juice", "ml")

	list, err := f.ingredients.List(ctx, "SUGAR")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "brown sugar", list[0].Name)
	assert.Equal(t, "sugar", list[1].Name)

	list, err = f.ingredients.List(ctx, "%_")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "100%_juice", list[0].Name)

	all, err := f.ingredients.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestIngredientRepository_GetOrCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.ingredients.GetOrCreate(ctx, "egg", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.DefaultMeasurementUnit, first.MeasurementUnit)

	second, created, err := f.ingredients.GetOrCreate(ctx, "egg", models.DefaultMeasurementUnit)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestTagRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	breakfast := f.tag(t, "Breakfast", "breakfast")
	f.tag(t, "Lunch", "lunch")

	got, err := f.tags.FindBySlug(ctx, "breakfast")
	require.NoError(t, err)
	assert.Equal(t, breakfast.ID, got.ID)

	found, err := f.tags.FindByIDs(ctx, []int64{breakfast.ID, 404})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	err = f.tags.Create(ctx, &models.Tag{Name: "Other", Slug: "breakfast", Color: "#fff"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRecipeRepository_CreateAndUpdateReplaceJoinRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "chef")
	flour := f.ingredient(t, "flour", "g")
	milk := f.ingredient(t, "milk", "ml")
	egg := f.ingredient(t, "egg", "pcs")
	t1 := f.tag(t, "Breakfast", "breakfast")
	t2 := f.tag(t, "Dinner", "dinner")

	r := f.recipe(t, author, "Pancakes", time.Now(), map[int64]int{flour.ID: 200, milk.ID: 300}, t1.ID)
	assert.Equal(t, int64(2), countRows(t, f.db, &models.IngredientInRecipe{}, r.ID))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.RecipeTag{}, r.ID))

	r.Name = "Better pancakes"
	r.Ingredients = []models.IngredientInRecipe{{IngredientID: egg.ID, Amount: 2}}
	r.Tags = []models.RecipeTag{{TagID: t1.ID}, {TagID: t2.ID}}
	require.NoError(t, f.recipes.Update(ctx, r))

	assert.Equal(t, int64(1), countRows(t, f.db, &models.IngredientInRecipe{}, r.ID))
	assert.Equal(t, int64(2), countRows(t, f.db, &models.RecipeTag{}, r.ID))

	got, err := f.recipes.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Better pancakes", got.Name)
	require.NotNil(t, got.Author)
	assert.Equal(t, "chef", got.Author.Username)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, "egg", got.Ingredients[0].Ingredient.Name)
	require.Len(t, got.Tags, 2)
	assert.Equal(t, "breakfast", got.Tags[0].Tag.Slug)
}

func TestRecipeRepository_UpdateRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "chef")
	flour := f.ingredient(t, "flour", "g")
	t1 := f.tag(t, "Breakfast", "breakfast")
	r := f.recipe(t, author, "Bread", time.Now(), map[int64]int{flour.ID: 500}, t1.ID)

	broken := *r
	broken.Name = "Renamed"
	// duplicate tag rows violate the unique (recipe, tag) index mid-transaction
	broken.Ingredients = []models.IngredientInRecipe{{IngredientID: flour.ID, Amount: 1}}
	broken.Tags = []models.RecipeTag{{TagID: t1.ID}, {TagID: t1.ID}}
	err := f.recipes.Update(ctx, &broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := f.recipes.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread", got.Name)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, 500, got.Ingredients[0].Amount)
	assert.Len(t, got.Tags, 1)
}

func TestRecipeRepository_UpdateMissing(t *testing.T) {
	f := newFixture(t)
	err := f.recipes.Update(context.Background(), &models.Recipe{ID: 42, Name: "x", Text: "y", CookingTime: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecipeRepository_ListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	flour := f.ingredient(t, "flour", "g")
	breakfast := f.tag(t, "Breakfast", "breakfast")
	dinner := f.tag(t, "Dinner", "dinner")
	lunch := f.tag(t, "Lunch", "lunch")

	base := time.Now().Add(-time.Hour)
	r1 := f.recipe(t, alice, "r1", base, map[int64]int{flour.ID: 1}, breakfast.ID)
	r2 := f.recipe(t, alice, "r2", base.Add(time.Minute), map[int64]int{flour.ID: 1}, dinner.ID)
	r3 := f.recipe(t, bob, "r3", base.Add(2*time.Minute), map[int64]int{flour.ID: 1}, breakfast.ID, dinner.ID)
	f.recipe(t, bob, "r4", base.Add(3*time.Minute), map[int64]int{flour.ID: 1}, lunch.ID)

	ids := func(list []models.Recipe) []int64 {
		out := make([]int64, 0, len(list))
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}

	list, total, err := f.recipes.List(ctx, RecipeFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, "r4", list[0].Name, "newest first")

	list, total, err = f.recipes.List(ctx, RecipeFilter{AuthorID: alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []int64{r2.ID, r1.ID}, ids(list))

	list, total, err = f.recipes.List(ctx, RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "any-match without duplicates")
	assert.Equal(t, []int64{r3.ID, r2.ID, r1.ID}, ids(list))

	require.NoError(t, f.favorites.Add(ctx, bob.ID, r1.ID))
	require.NoError(t, f.cart.Add(ctx, bob.ID, r2.ID))

	list, _, err = f.recipes.List(ctx, RecipeFilter{FavoritedBy: bob.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{r1.ID}, ids(list))

	list, _, err = f.recipes.List(ctx, RecipeFilter{InCartOf: bob.ID, AuthorID: alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{r2.ID}, ids(list))

	list, total, err = f.recipes.List(ctx, RecipeFilter{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, []int64{r2.ID, r1.ID}, ids(list))
}

func TestRecipeRepository_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	flour := f.ingredient(t, "flour", "g")
	tag := f.tag(t, "Breakfast", "breakfast")
	r := f.recipe(t, alice, "r", time.Now(), map[int64]int{flour.ID: 1}, tag.ID)
	require.NoError(t, f.favorites.Add(ctx, bob.ID, r.ID))

	require.NoError(t, f.recipes.Delete(ctx, r.ID))
	assert.ErrorIs(t, f.recipes.Delete(ctx, r.ID), ErrNotFound)

	_, err := f.recipes.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, countRows(t, f.db, &models.IngredientInRecipe{}, r.ID))
	assert.Zero(t, countRows(t, f.db, &models.RecipeTag{}, r.ID))
	assert.Zero(t, countRows(t, f.db, &models.Favorite{}, r.ID))
}

func TestRecipeRepository_NameTakenAndAuthorQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	flour := f.ingredient(t, "flour", "g")
	base := time.Now()
	r1 := f.recipe(t, alice, "one", base, map[int64]int{flour.ID: 1})
	f.recipe(t, alice, "two", base.Add(time.Second), map[int64]int{flour.ID: 1})
	f.recipe(t, alice, "three", base.Add(2*time.Second), map[int64]int{flour.ID: 1})

	taken, err := f.recipes.NameTaken(ctx, "one", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = f.recipes.NameTaken(ctx, "one", r1.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	limited, err := f.recipes.ListByAuthor(ctx, alice.ID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "three", limited[0].Name)

	all, err := f.recipes.ListByAuthor(ctx, alice.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	counts, err := f.recipes.CountByAuthors(ctx, []int64{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[alice.ID])
	assert.Equal(t, int64(0), counts[bob.ID])
}

func TestRecipeRepository_AggregateCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	sugar := f.ingredient(t, "sugar", "g")
	eggs := f.ingredient(t, "eggs", "pcs")
	milk := f.ingredient(t, "milk", "ml")

	r1 := f.recipe(t, alice, "r1", time.Now(), map[int64]int{sugar.ID: 2, eggs.ID: 3})
	r2 := f.recipe(t, alice, "r2", time.Now(), map[int64]int{sugar.ID: 5})
	r3 := f.recipe(t, alice, "r3", time.Now(), map[int64]int{milk.ID: 100})

	empty, err := f.recipes.AggregateCart(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, f.cart.Add(ctx, bob.ID, r1.ID))
	require.NoError(t, f.cart.Add(ctx, bob.ID, r2.ID))
	// someone else's cart must not leak in
	require.NoError(t, f.cart.Add(ctx, alice.ID, r3.ID))

	items, err := f.recipes.AggregateCart(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.ShoppingListItem{
		{Name: "eggs", MeasurementUnit: "pcs", TotalAmount: 3},
		{Name: "sugar", MeasurementUnit: "g", TotalAmount: 7},
	}, items)

	again, err := f.recipes.AggregateCart(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, items, again)
}

func TestRecipeLinkRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	flour := f.ingredient(t, "flour", "g")
	r1 := f.recipe(t, alice, "r1", time.Now(), map[int64]int{flour.ID: 1})
	r2 := f.recipe(t, alice, "r2", time.Now(), map[int64]int{flour.ID: 1})

	for name, repo := range map[string]RecipeLinkRepository{"favorites": f.favorites, "cart": f.cart} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.Add(ctx, alice.ID, r1.ID))
			assert.ErrorIs(t, repo.Add(ctx, alice.ID, r1.ID), ErrDuplicate)

			ok, err := repo.Exists(ctx, alice.ID, r1.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			linked, err := repo.LinkedRecipeIDs(ctx, alice.ID, []int64{r1.ID, r2.ID})
			require.NoError(t, err)
			assert.Equal(t, map[int64]bool{r1.ID: true}, linked)

			require.NoError(t, repo.Remove(ctx, alice.ID, r1.ID))
			assert.ErrorIs(t, repo.Remove(ctx, alice.ID, r1.ID), ErrNotFound)
		})
	}
}

func TestRecipeLinkRepository_KindsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	flour := f.ingredient(t, "flour", "g")
	r := f.recipe(t, alice, "r", time.Now(), map[int64]int{flour.ID: 1})

	require.NoError(t, f.favorites.Add(ctx, alice.ID, r.ID))
	inCart, err := f.cart.Exists(ctx, alice.ID, r.ID)
	require.NoError(t, err)
	assert.False(t, inCart)
}

func TestSubscriptionRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	_, err := f.subs.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.subs.Create(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	_, err = f.subs.Create(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrDuplicate)

	// the check constraint rejects self subscription even without the service
	_, err = f.subs.Create(ctx, alice.ID, alice.ID)
	assert.Error(t, err)

	list, total, err := f.subs.ListByUser(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Author)
	assert.Equal(t, "bob", list[0].Author.Username)

	followed, err := f.subs.SubscribedAuthorIDs(ctx, alice.ID, []int64{bob.ID, carol.ID, alice.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{bob.ID: true, carol.ID: true}, followed)

	require.NoError(t, f.subs.Delete(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, f.subs.Delete(ctx, alice.ID, bob.ID), ErrNotFound)

	ok, err := f.subs.Exists(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubscriptionRepository_CascadeOnUserDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	_, err := f.subs.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.db.Delete(&models.User{}, bob.ID).Error)

	_, total, err := f.subs.ListByUser(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total, fmt.Sprintf("subscription to deleted user %d must cascade", bob.ID))
}
