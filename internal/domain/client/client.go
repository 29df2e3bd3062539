package client

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/shared"
)

const maxPaymentTermsDays = 365

// Client is a customer invoices are addressed to
type Client struct {
	shared.OwnedAggregateRoot
	Name             string
	Email            string
	Phone            string
	Address          string
	Notes            string
	PaymentTermsDays int
}

// Input carries the editable attributes of a client
type Input struct {
	Name             string
	Email            string
	Phone            string
	Address          string
	Notes            string
	PaymentTermsDays int
}

// NewClient creates a new client
func NewClient(ownerID uuid.UUID, in Input) (*Client, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	c := &Client{OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID)}
	if err := c.apply(in); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the client's attributes
func (c *Client) Update(in Input) error {
	if err := c.apply(in); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

func (c *Client) apply(in Input) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Client name cannot exceed 200 characters")
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Client email is not a valid address")
		}
	}
	terms := in.PaymentTermsDays
	if terms == 0 {
		terms = 30
	}
	if terms < 0 || terms > maxPaymentTermsDays {
		return shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms must be between 1 and 365 days")
	}

	c.Name = name
	c.Email = email
	c.Phone = strings.TrimSpace(in.Phone)
	c.Address = strings.TrimSpace(in.Address)
	c.Notes = strings.TrimSpace(in.Notes)
	c.PaymentTermsDays = terms
	return nil
}
