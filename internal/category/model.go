package category

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateCategoryRequest payload of creation.
// swagger:model CreateCategoryRequest
type CreateCategoryRequest struct {
	Name        string `json:"name"        binding:"required,max=255" example:"Peripherals"`
	Description string `json:"description" binding:"max=500"          example:"Keyboards, mice and headsets"`
}
