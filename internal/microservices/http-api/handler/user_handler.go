package handler

import (
	"net/http"

	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	base
	auth  service.AuthService
	users service.UserService
	subs  service.SubscriptionService
}

func NewUserHandler(auth service.AuthService, users service.UserService, subs service.SubscriptionService, opts Options) *UserHandler {
	return &UserHandler{base: newBase(opts), auth: auth, users: users, subs: subs}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/", h.Register)
	rg.GET("/", h.List)
	rg.GET("/me/", middleware.RequireAuth(), h.Me)
	rg.POST("/set_password/", middleware.RequireAuth(), h.SetPassword)
	rg.GET("/subscriptions/", middleware.RequireAuth(), h.Subscriptions)
	rg.GET("/:id/", h.Get)
	rg.POST("/:id/subscribe/", middleware.RequireAuth(), h.Subscribe)
	rg.DELETE("/:id/subscribe/", middleware.RequireAuth(), h.Unsubscribe)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	user, err := h.auth.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromRegisteredUser(user))
}

func (h *UserHandler) List(c *gin.Context) {
	page, err := h.page(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	profiles, total, err := h.users.List(ctx, middleware.CallerFrom(c), page)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginated(dto.FromProfiles(profiles), total, page.Number, page.Size, requestURL(c)))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	profile, err := h.users.Get(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProfile(*profile))
}

func (h *UserHandler) Me(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	profile, err := h.users.Me(ctx, middleware.CallerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProfile(*profile))
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req dto.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.auth.SetPassword(ctx, middleware.CallerFrom(c), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, err := h.page(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	limit, err := service.ParseRecipeLimit(c.Query("recipe_limit"))
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	views, total, err := h.subs.List(ctx, middleware.CallerFrom(c), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	results := dto.FromSubscriptions(views, h.opts.MediaURL)
	c.JSON(http.StatusOK, dto.NewPaginated(results, total, page.Number, page.Size, requestURL(c)))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, err := service.ParseRecipeLimit(c.Query("recipe_limit"))
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.subs.Subscribe(ctx, middleware.CallerFrom(c), id, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromSubscription(*view, h.opts.MediaURL))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.subs.Unsubscribe(ctx, middleware.CallerFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
