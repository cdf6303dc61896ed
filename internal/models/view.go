package models

import "github.com/shopspring/decimal"

// ProductListItem is the flat projection of a product shown in the admin listing.
type ProductListItem struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Count        int             `json:"count"`
	Description  string          `json:"description"`
	CategoryName string          `json:"category_name"`
	MainImage    *string         `json:"main_image"`
}

// NewProductListItem maps a product with its category and images loaded.
func NewProductListItem(p *Product) ProductListItem {
	item := ProductListItem{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Count:       p.Count,
		Description: p.Description,
		MainImage:   p.MainImage(),
	}
	if p.Category != nil {
		item.CategoryName = p.Category.Name
	}
	return item
}

// ProductEditView carries the current values of a product into the edit form.
type ProductEditView struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Count       int             `json:"count"`
	CategoryID  uint            `json:"category_id"`
	Images      []ProductImage  `json:"images"`
}

// NewProductEditView maps a fully loaded product into its edit form values.
func NewProductEditView(p *Product) ProductEditView {
	return ProductEditView{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Count:       p.Count,
		CategoryID:  p.CategoryID,
		Images:      p.Images,
	}
}
