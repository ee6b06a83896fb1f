package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/product-catalog/internal/category"
	"github.com/MikeMC777/product-catalog/internal/paging"
)

// CategoryChecker reports whether a category exists.
type CategoryChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo       Repository
	categories CategoryChecker
	search     *paging.Engine[Product]
	log        logrus.FieldLogger
}

func NewService(repo Repository, categories CategoryChecker, log logrus.FieldLogger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		search:     paging.NewEngine[Product](repo, func(p Product) time.Time { return p.CreatedAt }, log),
		log:        log.WithField("component", "product"),
	}
}

// Create fails with category.ErrNotFound when the referenced category is missing.
func (s *Service) Create(ctx context.Context, in CreateProductRequest) (*Product, error) {
	ok, err := s.categories.Exists(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, category.ErrNotFound
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &Product{
		ID:          uuid.New(),
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		SKU:         in.SKU,
		WeightKg:    in.WeightKg,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"id": p.ID, "sku": p.SKU}).Info("product created")
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial change. Empty strings and non-positive amounts leave
// the stored value untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateProductRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil && *in.CategoryID != p.CategoryID {
		ok, err := s.categories.Exists(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidCategory
		}
	}

	in.apply(p)
	p.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.WithField("id", p.ID).Info("product updated")
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.log.WithField("id", id).Info("product deleted")
	return nil
}

// Search returns one page of products whose name contains query, newest first.
func (s *Service) Search(ctx context.Context, query, cursor string, size int) paging.Page[Response] {
	page := s.search.Search(ctx, paging.Filter{Query: query, PageSize: size}, cursor)
	return paging.Map(page, ToResponse)
}
