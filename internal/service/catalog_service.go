package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/repository"
	"training_hub_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	catalogCacheKeyPrefix = "catalog:services:"
	catalogCacheTTL       = 10 * time.Minute
)

// CatalogService AI工具目录，列表走 Redis 读缓存，管理端改动时失效
type CatalogService struct {
	ServiceRepo *repository.ServiceRepository
	Redis       *redis.Client
}

func NewCatalogService(serviceRepo *repository.ServiceRepository, rdb *redis.Client) *CatalogService {
	return &CatalogService{
		ServiceRepo: serviceRepo,
		Redis:       rdb,
	}
}

func catalogCacheKey(category string) string {
	if category == "" {
		return catalogCacheKeyPrefix + "all"
	}
	return catalogCacheKeyPrefix + category
}

func (s *CatalogService) List(ctx context.Context, category string) ([]model.ServiceEntry, error) {
	key := catalogCacheKey(category)

	if s.Redis != nil {
		val, err := s.Redis.Get(ctx, key).Result()
		if err == nil {
			var cached []model.ServiceEntry
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("catalog cache read failed", zap.Error(err))
		}
	}

	services, err := s.ServiceRepo.List(category)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if raw, err := json.Marshal(services); err == nil {
			if err := s.Redis.Set(ctx, key, raw, catalogCacheTTL).Err(); err != nil {
				logger.Log.Warn("catalog cache write failed", zap.Error(err))
			}
		}
	}
	return services, nil
}

// ServiceRequest 管理端创建/修改目录条目
type ServiceRequest struct {
	Name         string             `json:"name" binding:"required,max=200"`
	Description  string             `json:"description" binding:"required,max=1000"`
	Category     string             `json:"category" binding:"required,max=100"`
	URL          string             `json:"url" binding:"omitempty,url"`
	APIEndpoint  string             `json:"apiEndpoint" binding:"omitempty,url"`
	PricingModel model.PricingModel `json:"pricingModel" binding:"omitempty,oneof=free freemium paid enterprise"`
	Features     []string           `json:"features"`
	IsActive     *bool              `json:"isActive"`
}

func (s *CatalogService) Create(ctx context.Context, req ServiceRequest) (*model.ServiceEntry, error) {
	entry := &model.ServiceEntry{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		URL:          req.URL,
		APIEndpoint:  req.APIEndpoint,
		PricingModel: req.PricingModel,
		Features:     model.EncodeStringList(req.Features),
		IsActive:     true,
	}
	if entry.PricingModel == "" {
		entry.PricingModel = model.PricingFree
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if err := s.ServiceRepo.Create(entry); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return entry, nil
}

func (s *CatalogService) Update(ctx context.Context, id uint, req ServiceRequest) (*model.ServiceEntry, error) {
	entry, err := s.ServiceRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}

	entry.Name = req.Name
	entry.Description = req.Description
	entry.Category = req.Category
	entry.URL = req.URL
	entry.APIEndpoint = req.APIEndpoint
	if req.PricingModel != "" {
		entry.PricingModel = req.PricingModel
	}
	entry.Features = model.EncodeStringList(req.Features)
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if err := s.ServiceRepo.Save(entry); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return entry, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	if _, err := s.ServiceRepo.FindByID(id); err != nil {
		return err
	}
	if err := s.ServiceRepo.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	keys, err := s.Redis.Keys(ctx, catalogCacheKeyPrefix+"*").Result()
	if err != nil {
		logger.Log.Warn("catalog cache invalidation failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		s.Redis.Del(ctx, keys...)
	}
}
