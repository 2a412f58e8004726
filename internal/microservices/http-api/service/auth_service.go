package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"foodgram/internal/config"
	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	maxEmailLength    = 254
	maxNameLength     = 150
	minPasswordLength = 8
	reservedUsername  = "me"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	// Login exchanges email and password for a signed token.
	Login(ctx context.Context, email, password string) (string, error)
	// Logout revokes the token until it would have expired anyway.
	Logout(ctx context.Context, token string) error
	// ValidateToken resolves a token to the caller it was issued to.
	ValidateToken(ctx context.Context, token string) (Caller, error)
	SetPassword(ctx context.Context, caller Caller, current, next string) error
}

type tokenClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type authService struct {
	users          repository.UserRepository
	revoked        repository.RevokedTokenStore
	jwtSecret      []byte
	accessTokenTTL time.Duration
	log            *slog.Logger
	now            func() time.Time
}

// NewAuthService builds the auth service. revoked may be nil, in which case
// Logout only validates the token.
func NewAuthService(
	users repository.UserRepository,
	revoked repository.RevokedTokenStore,
	cfg *config.Config,
	log *slog.Logger,
) AuthService {
	return &authService{
		users:          users,
		revoked:        revoked,
		jwtSecret:      []byte(cfg.JWTSecret),
		accessTokenTTL: cfg.AccessTokenTTL,
		log:            log,
		now:            time.Now,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, invalid("email", "a user with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, invalid("username", "a user with this username already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hashed,
		Role:      models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent sign-up
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("email", "a user with this email or username already exists")
		}
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func validateRegistration(in RegisterInput) error {
	switch {
	case in.Email == "":
		return invalid("email", "this field is required")
	case len(in.Email) > maxEmailLength:
		return invalid("email", "ensure this field has no more than %d characters", maxEmailLength)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return invalid("email", "enter a valid email address")
	}

	switch {
	case in.Username == "":
		return invalid("username", "this field is required")
	case len(in.Username) > maxNameLength:
		return invalid("username", "ensure this field has no more than %d characters", maxNameLength)
	case !usernamePattern.MatchString(in.Username):
		return invalid("username", "letters, digits and @/./+/-/_ only")
	case in.Username == reservedUsername:
		return invalid("username", "username %q is reserved", reservedUsername)
	}

	if in.FirstName == "" {
		return invalid("first_name", "this field is required")
	}
	if len(in.FirstName) > maxNameLength {
		return invalid("first_name", "ensure this field has no more than %d characters", maxNameLength)
	}
	if in.LastName == "" {
		return invalid("last_name", "this field is required")
	}
	if len(in.LastName) > maxNameLength {
		return invalid("last_name", "ensure this field has no more than %d characters", maxNameLength)
	}

	return validatePassword("password", in.Password)
}

func validatePassword(field, password string) error {
	if len(password) < minPasswordLength {
		return invalid(field, "password must be at least %d characters", minPasswordLength)
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return invalid(field, "password must be at most 72 bytes")
	}
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
		// keep timing the same as a wrong password
		auth.BurnPasswordCheck(password)
		return "", invalid("", "unable to log in with provided credentials")
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", invalid("", "unable to log in with provided credentials")
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		Type:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) parse(tokenString string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Type != "access" || claims.ID == "" {
		return nil, newError(ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (Caller, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return Caller{}, err
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Caller{}, fmt.Errorf("check revoked token: %w", err)
		}
		if revoked {
			return Caller{}, newError(ErrUnauthorized, "invalid token")
		}
	}

	// roles can change after issue, so take the current one
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Caller{}, newError(ErrUnauthorized, "invalid token")
		}
		return Caller{}, err
	}

	return Caller{UserID: user.ID, Role: user.Role}, nil
}

func (s *authService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if s.revoked == nil {
		s.log.Warn("logout without a revocation store, token stays valid until expiry",
			"user_id", claims.UserID, "expires_at", claims.ExpiresAt.Time)
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.log.Info("token revoked", "user_id", claims.UserID)
	return nil
}

func (s *authService) SetPassword(ctx context.Context, caller Caller, current, next string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrUnauthorized, "invalid token")
		}
		return err
	}

	if err := auth.VerifyPassword(user.Password, current); err != nil {
		return invalid("current_password", "invalid password")
	}
	if err := validatePassword("new_password", next); err != nil {
		return err
	}

	hashed, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, user.ID, hashed)
}
