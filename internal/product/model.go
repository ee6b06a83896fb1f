package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	SKU         string          `json:"sku"`
	WeightKg    decimal.Decimal `json:"weightKg"`
	// Stored as TIMESTAMP without zone, always UTC. Sole ordering key for search.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Response is the public projection of a product.
// swagger:model ProductResponse
type Response struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	SKU         string          `json:"sku"`
	WeightKg    decimal.Decimal `json:"weightKg"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func ToResponse(p Product) Response {
	return Response{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		SKU:         p.SKU,
		WeightKg:    p.WeightKg,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name        string          `json:"name"        binding:"required,max=255" example:"Mechanical Keyboard"`
	Description string          `json:"description" binding:"max=500"          example:"RGB 60%"`
	SKU         string          `json:"sku"         binding:"required,max=50"  example:"KB-60-RGB"`
	Price       decimal.Decimal `json:"price"       binding:"required,gt=0"    example:"199.90"`
	WeightKg    decimal.Decimal `json:"weightKg"    binding:"required,gt=0"    example:"0.85"`
	CategoryID  uuid.UUID       `json:"categoryId"  binding:"required"`
}

// UpdateProductRequest payload of partial update. SKU cannot be changed.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name        *string          `json:"name"        binding:"omitempty,min=1,max=255"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Price       *decimal.Decimal `json:"price"       binding:"omitempty,gte=0.01"`
	WeightKg    *decimal.Decimal `json:"weightKg"    binding:"omitempty,gte=0.01"`
	CategoryID  *uuid.UUID       `json:"categoryId"`
}

// apply copies the meaningful fields of the request onto p. Category checks
// happen in the service.
func (in UpdateProductRequest) apply(p *Product) {
	if in.Name != nil && *in.Name != "" {
		p.Name = *in.Name
	}
	if in.Description != nil && *in.Description != "" {
		p.Description = *in.Description
	}
	if in.Price != nil && in.Price.IsPositive() {
		p.Price = *in.Price
	}
	if in.WeightKg != nil && in.WeightKg.IsPositive() {
		p.WeightKg = *in.WeightKg
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
}
