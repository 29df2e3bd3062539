package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/invoice"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nextNumberSQL bumps the owner's yearly counter and returns the new value.
// The upsert takes a row lock, so concurrent confirmations serialize here.
const nextNumberSQL = `INSERT INTO invoice_counters (owner_id, year, last_seq, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (owner_id, year) DO UPDATE
SET last_seq = invoice_counters.last_seq + 1, updated_at = excluded.updated_at
RETURNING last_seq`

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Taxes", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") })
}

func (r *GormInvoiceRepository) first(ctx context.Context, cond string, args ...any) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withChildren(ctx).Where(cond, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOwner finds an invoice with lines, taxes and payments
func (r *GormInvoiceRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*invoice.Invoice, error) {
	return r.first(ctx, "owner_id = ? AND id = ?", ownerID, id)
}

// FindByNumber finds an invoice by its number within an owner
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, ownerID uuid.UUID, number string) (*invoice.Invoice, error) {
	return r.first(ctx, "owner_id = ? AND number = ?", ownerID, strings.TrimSpace(number))
}

// FindByDraftID finds the invoice produced from a draft
func (r *GormInvoiceRepository) FindByDraftID(ctx context.Context, ownerID, draftID uuid.UUID) (*invoice.Invoice, error) {
	return r.first(ctx, "owner_id = ? AND draft_id = ?", ownerID, draftID)
}

// FindAllForOwner lists invoices without their child rows
func (r *GormInvoiceRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]invoice.Invoice, error) {
	var rows []models.InvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("owner_id = ?", ownerID), filter)
	query = paginate(query, filter, InvoiceSortFields, "created_at")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// CountForOwner counts invoices matching the filter
func (r *GormInvoiceRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("owner_id = ?", ownerID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindPastDue returns sent or partially paid invoices due before asOf's day
func (r *GormInvoiceRepository) FindPastDue(ctx context.Context, asOf time.Time, limit int) ([]invoice.Invoice, error) {
	y, m, d := asOf.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, asOf.Location())

	var rows []models.InvoiceModel
	query := r.db.WithContext(ctx).
		Where("status IN ? AND due_date < ?", []invoice.Status{invoice.StatusSent, invoice.StatusPartial}, day).
		Order("due_date ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// CreateWithNextNumber allocates the next number and inserts the invoice in one transaction
func (r *GormInvoiceRepository) CreateWithNextNumber(ctx context.Context, inv *invoice.Invoice) error {
	year := inv.InvoiceDate.Year()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq int
		if err := tx.Raw(nextNumberSQL, inv.OwnerID, year, time.Now().UTC()).Scan(&seq).Error; err != nil {
			return fmt.Errorf("allocate invoice number: %w", err)
		}
		if seq < 1 {
			return fmt.Errorf("allocate invoice number: counter returned %d", seq)
		}
		inv.AssignNumber(invoice.FormatNumber(year, seq))

		if err := tx.Create(models.InvoiceModelFromDomain(inv)).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: invoice for draft %s", shared.ErrAlreadyExists, inv.DraftID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		inv.AssignNumber("")
	}
	return err
}

// Save writes status, delivery and payment changes guarded by the aggregate version
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND owner_id = ? AND version = ?", inv.ID, inv.OwnerID, inv.Version-1).
			Updates(map[string]any{
				"status":      inv.Status,
				"amount_paid": inv.AmountPaid,
				"sent_at":     inv.SentAt,
				"sent_to":     inv.SentTo,
				"paid_at":     inv.PaidAt,
				"version":     inv.Version,
				"updated_at":  inv.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: invoice %s", shared.ErrConcurrencyConflict, inv.Number)
		}

		payments := models.PaymentModelsFromDomain(inv.ID, inv.Payments)
		if len(payments) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&payments).Error
	})
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(`(LOWER(number) LIKE ? ESCAPE '\' OR LOWER(client_name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "client_id":
			query = query.Where("client_id = ?", value)
		case "from":
			query = query.Where("invoice_date >= ?", value)
		case "to":
			query = query.Where("invoice_date <= ?", value)
		}
	}
	return query
}

func toInvoices(rows []models.InvoiceModel) []invoice.Invoice {
	out := make([]invoice.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// isDuplicateKey recognizes unique violations from both supported drivers
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ invoice.InvoiceRepository = (*GormInvoiceRepository)(nil)
