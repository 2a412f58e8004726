package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/repository"
)

const (
	maxCatalogNameLength = 200
	maxUnitLength        = 10
)

var (
	tagNamePattern  = regexp.MustCompile(`^\p{L}+$`)
	tagSlugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	tagColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)
)

type TagInput struct {
	Name  string
	Color string
	Slug  string
}

type IngredientInput struct {
	Name            string
	MeasurementUnit string
}

// ImportResult counts rows handled by a bulk import.
type ImportResult struct {
	Created int
	Skipped int
}

type CatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	CreateTag(ctx context.Context, caller Caller, in TagInput) (*models.Tag, error)

	ListIngredients(ctx context.Context, name string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error)
	CreateIngredient(ctx context.Context, caller Caller, in IngredientInput) (*models.Ingredient, error)

	// ImportTags creates tags whose slug is not taken yet.
	ImportTags(ctx context.Context, rows []TagInput) (ImportResult, error)
	// ImportIngredients creates (name, unit) pairs that do not exist yet.
	ImportIngredients(ctx context.Context, rows []IngredientInput) (ImportResult, error)
}

type catalogService struct {
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	log         *slog.Logger
}

func NewCatalogService(tags repository.TagRepository, ingredients repository.IngredientRepository, log *slog.Logger) CatalogService {
	return &catalogService{tags: tags, ingredients: ingredients, log: log}
}

func (s *catalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.tags.List(ctx)
}

func (s *catalogService) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "tag not found")
	}
	return tag, err
}

func (s *catalogService) CreateTag(ctx context.Context, caller Caller, in TagInput) (*models.Tag, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	in = normalizeTag(in)
	if err := validateTag(in); err != nil {
		return nil, err
	}

	tag := &models.Tag{Name: in.Name, Color: in.Color, Slug: in.Slug}
	if err := s.tags.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("slug", "a tag with this name or slug already exists")
		}
		return nil, err
	}
	return tag, nil
}

func requireAdmin(c Caller) error {
	if err := requireAuth(c); err != nil {
		return err
	}
	if !c.IsAdmin() {
		return newError(ErrForbidden, "you do not have permission to perform this action")
	}
	return nil
}

func normalizeTag(in TagInput) TagInput {
	return TagInput{
		Name:  strings.TrimSpace(in.Name),
		Color: strings.ToUpper(strings.TrimSpace(in.Color)),
		Slug:  strings.TrimSpace(in.Slug),
	}
}

func validateTag(in TagInput) error {
	switch {
	case in.Name == "":
		return invalid("name", "this field is required")
	case utf8.RuneCountInString(in.Name) > maxCatalogNameLength:
		return invalid("name", "ensure this field has no more than %d characters", maxCatalogNameLength)
	case !tagNamePattern.MatchString(in.Name):
		return invalid("name", "tag name may contain letters only")
	}
	if !tagColorPattern.MatchString(in.Color) {
		return invalid("color", "color must look like #RGB or #RRGGBB")
	}
	switch {
	case in.Slug == "":
		return invalid("slug", "this field is required")
	case len(in.Slug) > maxCatalogNameLength:
		return invalid("slug", "ensure this field has no more than %d characters", maxCatalogNameLength)
	case !tagSlugPattern.MatchString(in.Slug):
		return invalid("slug", "slug may contain latin letters, digits, hyphens and underscores only")
	}
	return nil
}

func (s *catalogService) ListIngredients(ctx context.Context, name string) ([]models.Ingredient, error) {
	return s.ingredients.List(ctx, name)
}

func (s *catalogService) GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	ingredient, err := s.ingredients.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "ingredient not found")
	}
	return ingredient, err
}

func (s *catalogService) CreateIngredient(ctx context.Context, caller Caller, in IngredientInput) (*models.Ingredient, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	in = normalizeIngredient(in)
	if err := validateIngredient(in); err != nil {
		return nil, err
	}

	ingredient := &models.Ingredient{Name: in.Name, MeasurementUnit: in.MeasurementUnit}
	if err := s.ingredients.Create(ctx, ingredient); err != nil {
		return nil, err
	}
	return ingredient, nil
}

func normalizeIngredient(in IngredientInput) IngredientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.MeasurementUnit = strings.TrimSpace(in.MeasurementUnit)
	if in.MeasurementUnit == "" {
		in.MeasurementUnit = models.DefaultMeasurementUnit
	}
	return in
}

func validateIngredient(in IngredientInput) error {
	if in.Name == "" {
		return invalid("name", "this field is required")
	}
	if utf8.RuneCountInString(in.Name) > maxCatalogNameLength {
		return invalid("name", "ensure this field has no more than %d characters", maxCatalogNameLength)
	}
	if utf8.RuneCountInString(in.MeasurementUnit) > maxUnitLength {
		return invalid("measurement_unit", "ensure this field has no more than %d characters", maxUnitLength)
	}
	return nil
}

func (s *catalogService) ImportTags(ctx context.Context, rows []TagInput) (ImportResult, error) {
	var res ImportResult
	for i, row := range rows {
		row = normalizeTag(row)
		if err := validateTag(row); err != nil {
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}

		if _, err := s.tags.FindBySlug(ctx, row.Slug); err == nil {
			res.Skipped++
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}

		if err := s.tags.Create(ctx, &models.Tag{Name: row.Name, Color: row.Color, Slug: row.Slug}); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				s.log.Warn("tag name already used, skipping", "row", i+1, "name", row.Name)
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}
		res.Created++
	}
	return res, nil
}

func (s *catalogService) ImportIngredients(ctx context.Context, rows []IngredientInput) (ImportResult, error) {
	var res ImportResult
	for i, row := range rows {
		row = normalizeIngredient(row)
		if err := validateIngredient(row); err != nil {
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}

		_, created, err := s.ingredients.GetOrCreate(ctx, row.Name, row.MeasurementUnit)
		if err != nil {
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}
