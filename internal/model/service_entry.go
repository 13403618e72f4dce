package model

import (
	"gorm.io/datatypes"
)

type PricingModel string

const (
	PricingFree       PricingModel = "free"
	PricingFreemium   PricingModel = "freemium"
	PricingPaid       PricingModel = "paid"
	PricingEnterprise PricingModel = "enterprise"
)

// ServiceEntry AI工具目录条目，目录整体受必修课关卡保护
// swagger:model ServiceEntry
type ServiceEntry struct {
	BaseModel
	Name         string         `gorm:"size:200;not null" json:"name"`
	Description  string         `gorm:"size:1000" json:"description"`
	Category     string         `gorm:"size:100;index" json:"category"`
	URL          string         `gorm:"size:255" json:"url,omitempty"`
	APIEndpoint  string         `gorm:"size:255" json:"apiEndpoint,omitempty"`
	PricingModel PricingModel   `gorm:"size:20;default:'free'" json:"pricingModel"`
	Features     datatypes.JSON `json:"features"`
	IsActive     bool           `gorm:"default:true;index" json:"isActive"`
}

func (ServiceEntry) TableName() string {
	return "service_catalog"
}
