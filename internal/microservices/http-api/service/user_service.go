package service

import (
	"context"
	"errors"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
)

// UserProfile is a user as seen by a particular viewer.
type UserProfile struct {
	User         models.User
	IsSubscribed bool
}

type UserService interface {
	Get(ctx context.Context, caller Caller, id int64) (*UserProfile, error)
	Me(ctx context.Context, caller Caller) (*UserProfile, error)
	List(ctx context.Context, caller Caller, page Page) ([]UserProfile, int64, error)
}

type userService struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
}

func NewUserService(users repository.UserRepository, subs repository.SubscriptionRepository) UserService {
	return &userService{users: users, subs: subs}
}

func (s *userService) Get(ctx context.Context, caller Caller, id int64) (*UserProfile, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, err
	}

	profiles, err := s.profiles(ctx, caller, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

func (s *userService) Me(ctx context.Context, caller Caller) (*UserProfile, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	return s.Get(ctx, caller, caller.UserID)
}

func (s *userService) List(ctx context.Context, caller Caller, page Page) ([]UserProfile, int64, error) {
	users, total, err := s.users.List(ctx, page.Offset(), page.Size)
	if err != nil {
		return nil, 0, err
	}
	profiles, err := s.profiles(ctx, caller, users)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (s *userService) profiles(ctx context.Context, caller Caller, users []models.User) ([]UserProfile, error) {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := s.subs.SubscribedAuthorIDs(ctx, caller.UserID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, UserProfile{User: u, IsSubscribed: subscribed[u.ID]})
	}
	return out, nil
}
