package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const maxPageSize = 100

// Options are the settings every handler shares.
type Options struct {
	Log            *slog.Logger
	RequestTimeout time.Duration
	PageSize       int
	UploadMaxBytes int64
	MediaURL       dto.MediaURLFunc
}

func (o Options) withDefaults() Options {
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 5 * time.Second
	}
	if o.PageSize <= 0 {
		o.PageSize = 6
	}
	if o.UploadMaxBytes <= 0 {
		o.UploadMaxBytes = 10 * 1000 * 1000
	}
	if o.MediaURL == nil {
		o.MediaURL = func(path string) string { return path }
	}
	return o
}

// base carries Options and the helpers built on them.
type base struct {
	opts Options
}

func newBase(opts Options) base {
	return base{opts: opts.withDefaults()}
}

func (b base) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), b.opts.RequestTimeout)
}

// page reads ?page= and ?limit=. Page numbers whose offset would not fit
// in an int are rejected.
func (b base) page(c *gin.Context) (service.Page, error) {
	p := service.Page{Number: 1, Size: b.opts.PageSize}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, &service.ValidationError{Field: "limit", Message: "must be a positive integer"}
		}
		p.Size = min(n, maxPageSize)
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, &service.ValidationError{Field: "page", Message: "must be a positive integer"}
		}
		if n > math.MaxInt/p.Size {
			return p, &service.ValidationError{Field: "page", Message: "page is out of range"}
		}
		p.Number = n
	}
	return p, nil
}

// requestURL is the absolute URL of the current request, used for next and
// previous links.
func requestURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	u.Host = c.Request.Host
	u.Scheme = "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	return &u
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}

// fail maps service error kinds onto status codes.
func (b base) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	var serr *service.Error

	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Message}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &serr):
		c.JSON(statusFor(serr.Kind), gin.H{"error": serr.Message})
	case errors.Is(err, context.DeadlineExceeded):
		b.opts.Log.Warn("request timed out", "path", c.FullPath())
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request timed out"})
	default:
		b.opts.Log.Error("request failed", "path", c.FullPath(), "method", c.Request.Method, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func statusFor(kind error) int {
	switch kind {
	case service.ErrValidation, service.ErrConflict:
		return http.StatusBadRequest
	case service.ErrUnauthorized:
		return http.StatusUnauthorized
	case service.ErrForbidden:
		return http.StatusForbidden
	case service.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
