package service

import (
	"context"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/app/repository"
	"github.com/ikkim/scanreview-backend/pkg/cache"
)

const categoriesCacheKey = "categories:all"

type CategoryService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type categoryService struct {
	repo  repository.CategoryRepository
	store cache.Store
	ttl   time.Duration
}

// NewCategoryService serves categories through store. A nil store reads
// straight from the database.
func NewCategoryService(repo repository.CategoryRepository, store cache.Store, ttl time.Duration) CategoryService {
	if store == nil {
		store = cache.NopStore{}
	}
	return &categoryService{repo: repo, store: store, ttl: ttl}
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := cache.GetOrRefresh(ctx, s.store, categoriesCacheKey, s.ttl, s.repo.List)
	if err != nil {
		return nil, storageFailure("category.list", err, nil)
	}
	return categories, nil
}
