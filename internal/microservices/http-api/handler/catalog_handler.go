package handler

import (
	"net/http"

	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// TagHandler serves /api/tags. Tags are not paginated.
type TagHandler struct {
	base
	svc service.CatalogService
}

func NewTagHandler(svc service.CatalogService, opts Options) *TagHandler {
	return &TagHandler{base: newBase(opts), svc: svc}
}

func (h *TagHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.List)
	rg.GET("/:id/", h.Get)
	rg.POST("/", middleware.RequireAdmin(), h.Create)
}

func (h *TagHandler) List(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	tags, err := h.svc.ListTags(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTags(tags))
}

func (h *TagHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	tag, err := h.svc.GetTag(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTag(*tag))
}

func (h *TagHandler) Create(c *gin.Context) {
	var req dto.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	tag, err := h.svc.CreateTag(ctx, middleware.CallerFrom(c), req.ToInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTag(*tag))
}

// IngredientHandler serves /api/ingredients. Ingredients are not paginated.
type IngredientHandler struct {
	base
	svc service.CatalogService
}

func NewIngredientHandler(svc service.CatalogService, opts Options) *IngredientHandler {
	return &IngredientHandler{base: newBase(opts), svc: svc}
}

func (h *IngredientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.List)
	rg.GET("/:id/", h.Get)
	rg.POST("/", middleware.RequireAdmin(), h.Create)
}

// List filters by ?name= substring
func (h *IngredientHandler) List(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	ingredients, err := h.svc.ListIngredients(ctx, c.Query("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIngredients(ingredients))
}

func (h *IngredientHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	ingredient, err := h.svc.GetIngredient(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIngredient(*ingredient))
}

func (h *IngredientHandler) Create(c *gin.Context) {
	var req dto.CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	ingredient, err := h.svc.CreateIngredient(ctx, middleware.CallerFrom(c), req.ToInput())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromIngredient(*ingredient))
}
