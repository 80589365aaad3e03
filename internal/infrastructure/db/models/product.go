package models

import "time"

type Product struct {
	ID          int64    `gorm:"primaryKey"`
	SKU         string   `gorm:"column:sku;size:255;not null"`
	SKUCI       string   `gorm:"column:sku_ci;size:255;not null;uniqueIndex:idx_products_sku_ci"`
	Name        string   `gorm:"size:1024;not null"`
	Description *string  `gorm:"type:text"`
	Price       *float64 `gorm:"type:numeric(12,2)"`
	Active      bool     `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string {
	return "products"
}
