package dto

import (
	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/service"
)

// RegisterResponse is returned by sign-up, without the subscription flag.
type RegisterResponse struct {
	Email     string `json:"email"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserResponse struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func FromRegisteredUser(u *models.User) RegisterResponse {
	return RegisterResponse{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func FromUser(u models.User, subscribed bool) UserResponse {
	return UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func FromProfile(p service.UserProfile) UserResponse {
	return FromUser(p.User, p.IsSubscribed)
}

func FromProfiles(list []service.UserProfile) []UserResponse {
	out := make([]UserResponse, 0, len(list))
	for _, p := range list {
		out = append(out, FromProfile(p))
	}
	return out
}

// SubscriptionResponse is a followed author with a recipe preview.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

func FromSubscription(v service.SubscriptionView, media MediaURLFunc) SubscriptionResponse {
	recipes := make([]ShortRecipeResponse, 0, len(v.Recipes))
	for i := range v.Recipes {
		recipes = append(recipes, FromShortRecipe(&v.Recipes[i], media))
	}
	return SubscriptionResponse{
		UserResponse: FromUser(v.Author, v.IsSubscribed),
		Recipes:      recipes,
		RecipesCount: v.RecipesCount,
	}
}

func FromSubscriptions(list []service.SubscriptionView, media MediaURLFunc) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(list))
	for _, v := range list {
		out = append(out, FromSubscription(v, media))
	}
	return out
}
