package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalog. Products reference it, they do not own it.
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

// Product represents a product in the catalog.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(18,2);not null"`
	Count       int             `json:"count" gorm:"not null;default:0"`
	CategoryID  uint            `json:"category_id" gorm:"index;not null"`
	Category    *Category       `json:"category,omitempty"`
	Images      []ProductImage  `json:"images" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductImage is one stored image of a product. Image holds the stored file name.
type ProductImage struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Image     string `json:"image" gorm:"type:varchar(512);not null"`
	IsMain    bool   `json:"is_main" gorm:"not null;default:false"`
	ProductID uint   `json:"product_id" gorm:"index;not null"`
}

// MainImage returns the stored name of the image flagged as main, or nil.
func (p *Product) MainImage() *string {
	for i := range p.Images {
		if p.Images[i].IsMain {
			name := p.Images[i].Image
			return &name
		}
	}
	return nil
}

// ImageNames returns the stored file names of all images of the product.
func (p *Product) ImageNames() []string {
	names := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		names = append(names, img.Image)
	}
	return names
}
