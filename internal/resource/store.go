package resource

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"support-finder/internal/apperrors"
)

// Repository is everything the matching engine needs from the resource store.
type Repository interface {
	ListResources(ctx context.Context, filter Filter) ([]Resource, error)
	// GetCategoryBySlug returns (nil, nil) when the slug does not exist.
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	GetResource(ctx context.Context, id uint) (*Resource, error)
}

// Store is the gorm-backed Repository.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *Store) ListResources(ctx context.Context, filter Filter) ([]Resource, error) {
	q := s.db.WithContext(ctx).Model(&Resource{}).Preload("Categories")
	if filter.CategoryID != 0 {
		q = q.Where("resources.id IN (?)",
			s.db.Table("resource_categories").Select("resource_id").Where("category_id = ?", filter.CategoryID))
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + likeEscaper.Replace(term) + "%"
		q = q.Where(`LOWER(resources.name) LIKE ? ESCAPE '\' OR LOWER(resources.description) LIKE ? ESCAPE '\'`, like, like)
	}
	var out []Resource
	if err := q.Order("resources.id ASC").Find(&out).Error; err != nil {
		return nil, apperrors.Storage("list resources", err)
	}
	return out, nil
}

func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Storage("get category", err)
	}
	return &c, nil
}

func (s *Store) GetResource(ctx context.Context, id uint) (*Resource, error) {
	var r Resource
	err := s.db.WithContext(ctx).Preload("Categories").First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("resource", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get resource", err)
	}
	return &r, nil
}

// Create inserts a resource together with its category links.
func (s *Store) Create(ctx context.Context, r *Resource) error {
	if err := ValidateCoordinates(r.Latitude, r.Longitude); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return apperrors.Storage("create resource", err)
	}
	return nil
}

// EnsureCategories inserts any of the given categories whose slug is missing.
// Existing rows are left untouched.
func (s *Store) EnsureCategories(ctx context.Context, categories []Category) error {
	for _, c := range categories {
		c := c
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
			Create(&c).Error
		if err != nil {
			return apperrors.Storage("seed category "+c.Slug, err)
		}
	}
	return nil
}
