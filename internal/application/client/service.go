package client

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/client"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ClientService handles client-related business operations
type ClientService struct {
	repo   client.ClientRepository
	logger *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(repo client.ClientRepository, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{repo: repo, logger: logger}
}

// Create creates a new client; names are unique per owner, ignoring case
func (s *ClientService) Create(ctx context.Context, ownerID uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	c, err := client.NewClient(ownerID, req.toInput())
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, ownerID, c.Name, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("client created", zap.String("owner_id", ownerID.String()), zap.String("client_id", c.ID.String()))
	resp := ToClientResponse(c)
	return &resp, nil
}

// GetByID retrieves a client by ID
func (s *ClientService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*ClientResponse, error) {
	c, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(c)
	return &resp, nil
}

// List retrieves clients for an owner
func (s *ClientService) List(ctx context.Context, ownerID uuid.UUID, filter ClientListFilter) ([]ClientResponse, int64, error) {
	domainFilter := shared.Filter{
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "name"
		domainFilter.OrderDir = "asc"
	}

	clients, err := s.repo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToClientResponse(&clients[i])
	}
	return responses, total, nil
}

// Update replaces a client's attributes
func (s *ClientService) Update(ctx context.Context, ownerID, id uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	c, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(req.Name), c.Name) {
		if err := s.ensureUniqueName(ctx, ownerID, req.Name, c.ID); err != nil {
			return nil, err
		}
	}
	if err := c.Update(req.toInput()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToClientResponse(c)
	return &resp, nil
}

// Delete removes a client; invoices keep the client name they were issued with
func (s *ClientService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.DeleteForOwner(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info("client deleted", zap.String("owner_id", ownerID.String()), zap.String("client_id", id.String()))
	return nil
}

// ResolveByName finds a client by a free-text name hint.
// It returns nil without error when no client matches.
func (s *ClientService) ResolveByName(ctx context.Context, ownerID uuid.UUID, hint string) (*client.Client, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil, nil
	}
	c, err := s.repo.FindByName(ctx, ownerID, hint)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// Find returns the domain client, for use by other application services
func (s *ClientService) Find(ctx context.Context, ownerID, id uuid.UUID) (*client.Client, error) {
	return s.repo.FindByIDForOwner(ctx, ownerID, id)
}

func (s *ClientService) ensureUniqueName(ctx context.Context, ownerID uuid.UUID, name string, self uuid.UUID) error {
	existing, err := s.repo.FindByName(ctx, ownerID, strings.TrimSpace(name))
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return shared.NewDomainError("ALREADY_EXISTS", "A client with this name already exists")
	}
	return nil
}
