package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/service"
	"foodgram/internal/storage"

	"github.com/gin-gonic/gin"
)

// multipart bodies carry the raw file, JSON bodies a base64 data URI
const bodyOverhead = 1 << 20

type RecipeHandler struct {
	base
	recipes   service.RecipeService
	favorites service.RecipeLinkService
	cart      service.RecipeLinkService
	shopping  service.ShoppingListService
}

func NewRecipeHandler(
	recipes service.RecipeService,
	favorites service.RecipeLinkService,
	cart service.RecipeLinkService,
	shopping service.ShoppingListService,
	opts Options,
) *RecipeHandler {
	return &RecipeHandler{
		base:      newBase(opts),
		recipes:   recipes,
		favorites: favorites,
		cart:      cart,
		shopping:  shopping,
	}
}

func (h *RecipeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.List)
	rg.POST("/", middleware.RequireAuth(), h.Create)
	rg.GET("/download_shopping_cart/", middleware.RequireAuth(), h.DownloadShoppingCart)
	rg.GET("/:id/", h.Get)
	rg.PATCH("/:id/", middleware.RequireAuth(), h.Update)
	rg.DELETE("/:id/", middleware.RequireAuth(), h.Delete)

	rg.POST("/:id/favorite/", middleware.RequireAuth(), h.link(h.favorites))
	rg.DELETE("/:id/favorite/", middleware.RequireAuth(), h.unlink(h.favorites))
	rg.POST("/:id/shopping_cart/", middleware.RequireAuth(), h.link(h.cart))
	rg.DELETE("/:id/shopping_cart/", middleware.RequireAuth(), h.unlink(h.cart))
}

func queryFlag(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true":
		return true
	}
	return false
}

// List supports ?author=, repeated ?tags=<slug>, ?is_favorited= and
// ?is_in_shopping_cart=.
func (h *RecipeHandler) List(c *gin.Context) {
	page, err := h.page(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	filter := service.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.fail(c, &service.ValidationError{Field: "author", Message: "must be a user id"})
			return
		}
		filter.AuthorID = id
	}

	ctx, cancel := h.context(c)
	defer cancel()

	views, total, err := h.recipes.List(ctx, middleware.CallerFrom(c), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}

	results := dto.FromRecipeViews(views, h.opts.MediaURL)
	c.JSON(http.StatusOK, dto.NewPaginated(results, total, page.Number, page.Size, requestURL(c)))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.recipes.Get(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecipeView(*view, h.opts.MediaURL))
}

func (h *RecipeHandler) Create(c *gin.Context) {
	in, err := h.bindRecipe(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.recipes.Create(ctx, middleware.CallerFrom(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRecipeView(*view, h.opts.MediaURL))
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	in, err := h.bindRecipe(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.recipes.Update(ctx, middleware.CallerFrom(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRecipeView(*view, h.opts.MediaURL))
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.recipes.Delete(ctx, middleware.CallerFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) link(svc service.RecipeLinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := h.context(c)
		defer cancel()

		recipe, err := svc.Add(ctx, middleware.CallerFrom(c), id)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.FromShortRecipe(recipe, h.opts.MediaURL))
	}
}

func (h *RecipeHandler) unlink(svc service.RecipeLinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := h.context(c)
		defer cancel()

		if err := svc.Remove(ctx, middleware.CallerFrom(c), id); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DownloadShoppingCart returns the aggregated cart as a text attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	body, err := h.shopping.Download(ctx, middleware.CallerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ShoppingListFilename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

// bindRecipe accepts either a JSON body or multipart/form-data.
func (h *RecipeHandler) bindRecipe(c *gin.Context) (service.RecipeInput, error) {
	limit := h.opts.UploadMaxBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*limit+bodyOverhead)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return h.bindRecipeForm(c)
	}

	var req dto.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return service.RecipeInput{}, bodyError(err)
	}

	var image *storage.Image
	if req.Image != "" {
		img, err := storage.DecodeDataURI(req.Image, limit)
		if err != nil {
			return service.RecipeInput{}, imageError(err)
		}
		image = img
	}
	return req.ToInput(image), nil
}

func (h *RecipeHandler) bindRecipeForm(c *gin.Context) (service.RecipeInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return service.RecipeInput{}, bodyError(err)
	}

	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	req := dto.RecipeRequest{Name: value("name"), Text: value("text")}

	if raw := value("cooking_time"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return service.RecipeInput{}, &service.ValidationError{Field: "cooking_time", Message: "must be an integer"}
		}
		req.CookingTime = n
	}

	if raw := value("ingredients"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Ingredients); err != nil {
			return service.RecipeInput{}, &service.ValidationError{Field: "ingredients", Message: "must be a JSON list of {id, amount}"}
		}
	}

	tags, err := formTags(form.Value["tags"])
	if err != nil {
		return service.RecipeInput{}, err
	}
	req.Tags = tags

	var image *storage.Image
	if files := form.File["image"]; len(files) > 0 {
		image, err = storage.ReadUpload(files[0], h.opts.UploadMaxBytes)
	} else if uri := value("image"); uri != "" {
		image, err = storage.DecodeDataURI(uri, h.opts.UploadMaxBytes)
	}
	if err != nil {
		return service.RecipeInput{}, imageError(err)
	}

	return req.ToInput(image), nil
}

// formTags accepts repeated tags fields or a single JSON array.
func formTags(values []string) ([]int64, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var ids []int64
		if err := json.Unmarshal([]byte(values[0]), &ids); err != nil {
			return nil, &service.ValidationError{Field: "tags", Message: "must be a list of tag ids"}
		}
		return ids, nil
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, &service.ValidationError{Field: "tags", Message: "must be a list of tag ids"}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func imageError(err error) error {
	if errors.Is(err, storage.ErrImageTooLarge) {
		return &service.ValidationError{Field: "image", Message: "image is too large"}
	}
	return &service.ValidationError{Field: "image", Message: err.Error()}
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &service.ValidationError{Message: "request body is too large"}
	}
	return &service.ValidationError{Message: err.Error()}
}
