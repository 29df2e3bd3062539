package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/client"
)

// ClientRequest represents a request to create or update a client
type ClientRequest struct {
	Name             string `json:"name" binding:"required,min=1,max=200"`
	Email            string `json:"email" binding:"omitempty,email,max=200"`
	Phone            string `json:"phone" binding:"max=50"`
	Address          string `json:"address" binding:"max=500"`
	Notes            string `json:"notes" binding:"max=2000"`
	PaymentTermsDays int    `json:"payment_terms_days" binding:"omitempty,min=1,max=365"`
}

// ClientListFilter represents filter options for client lists
type ClientListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	Notes            string    `json:"notes"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int       `json:"version"`
}

func (r ClientRequest) toInput() client.Input {
	return client.Input{
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		Address:          r.Address,
		Notes:            r.Notes,
		PaymentTermsDays: r.PaymentTermsDays,
	}
}

// ToClientResponse converts a domain Client to ClientResponse
func ToClientResponse(c *client.Client) ClientResponse {
	return ClientResponse{
		ID:               c.ID,
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Address:          c.Address,
		Notes:            c.Notes,
		PaymentTermsDays: c.PaymentTermsDays,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
		Version:          c.Version,
	}
}
