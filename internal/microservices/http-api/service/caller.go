package service

import (
	"math"

	"foodgram/internal/microservices/http-api/models"
)

// Caller identifies who is performing an operation. The zero value is an
// anonymous visitor.
type Caller struct {
	UserID int64
	Role   string
}

func (c Caller) Authenticated() bool {
	return c.UserID != 0
}

func (c Caller) IsAdmin() bool {
	return c.Authenticated() && c.Role == models.RoleAdmin
}

func requireAuth(c Caller) error {
	if !c.Authenticated() {
		return newError(ErrUnauthorized, "authentication credentials were not provided")
	}
	return nil
}

// Page is a 1-based page number and a page size.
type Page struct {
	Number int
	Size   int
}

// Offset saturates at math.MaxInt instead of wrapping.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}
