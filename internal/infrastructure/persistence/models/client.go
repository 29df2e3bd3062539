package models

import "github.com/smartinvoice/backend/internal/domain/client"

// ClientModel is the persistence model for the Client aggregate.
type ClientModel struct {
	OwnedAggregateModel
	Name             string `gorm:"type:varchar(200);not null"`
	NameKey          string `gorm:"type:varchar(200);not null;index"`
	Email            string `gorm:"type:varchar(200)"`
	Phone            string `gorm:"type:varchar(50)"`
	Address          string `gorm:"type:text"`
	Notes            string `gorm:"type:text"`
	PaymentTermsDays int    `gorm:"not null;default:30"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client
func (m *ClientModel) ToDomain() *client.Client {
	return &client.Client{
		OwnedAggregateRoot: m.ToOwnedAggregateRoot(),
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		Address:            m.Address,
		Notes:              m.Notes,
		PaymentTermsDays:   m.PaymentTermsDays,
	}
}

// ClientModelFromDomain creates a persistence model from a domain Client
func ClientModelFromDomain(c *client.Client) *ClientModel {
	m := &ClientModel{
		Name:             c.Name,
		NameKey:          NameKey(c.Name),
		Email:            c.Email,
		Phone:            c.Phone,
		Address:          c.Address,
		Notes:            c.Notes,
		PaymentTermsDays: c.PaymentTermsDays,
	}
	m.FromDomainOwnedAggregateRoot(c.OwnedAggregateRoot)
	return m
}
