package repository

import (
	"training_hub_backend/internal/model"

	"gorm.io/gorm"
)

type ServiceRepository struct {
	DB *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{DB: db}
}

// List 按分类过滤有效的目录条目
func (r *ServiceRepository) List(category string) ([]model.ServiceEntry, error) {
	var services []model.ServiceEntry
	query := r.DB.Where("is_active = ?", true).Order("created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Find(&services).Error
	return services, err
}

func (r *ServiceRepository) FindByID(id uint) (*model.ServiceEntry, error) {
	var service model.ServiceEntry
	err := r.DB.First(&service, id).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *ServiceRepository) Create(service *model.ServiceEntry) error {
	return r.DB.Create(service).Error
}

func (r *ServiceRepository) Save(service *model.ServiceEntry) error {
	return r.DB.Save(service).Error
}

func (r *ServiceRepository) Delete(id uint) error {
	return r.DB.Delete(&model.ServiceEntry{}, id).Error
}
