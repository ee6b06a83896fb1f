package category

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Service struct {
	repo Repository
	log  logrus.FieldLogger
}

func NewService(repo Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log.WithField("component", "category")}
}

// Create rejects names that are already taken.
func (s *Service) Create(ctx context.Context, in CreateCategoryRequest) (*Category, error) {
	_, err := s.repo.GetByName(ctx, in.Name)
	switch {
	case err == nil:
		return nil, ErrDuplicateName
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &Category{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"id": c.ID, "name": c.Name}).Info("category created")
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.log.WithField("id", id).Info("category deleted")
	return nil
}

// Exists lets other services check category references.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}
