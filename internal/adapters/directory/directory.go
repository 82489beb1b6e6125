package directory

import (
	"context"
	"time"

	"b2b_marketplace_backend/internal/quotes/ports"
	"b2b_marketplace_backend/platform/logger"
	"b2b_marketplace_backend/platform/phone"

	"github.com/google/uuid"
)

// CompanySource fetches directory records. Implemented by Client.
type CompanySource interface {
	GetCompany(ctx context.Context, id uuid.UUID) (Company, error)
}

// Directory implements ports.PartyDirectory with read-through caching.
// Cache errors are logged and fall through to the source.
type Directory struct {
	source CompanySource
	cache  Cache
	ttl    time.Duration
	log    *logger.Logger
}

// New creates a cached directory. A nil cache disables caching.
func New(source CompanySource, cache Cache, ttl time.Duration, log *logger.Logger) *Directory {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Directory{source: source, cache: cache, ttl: ttl, log: log}
}

// LookupBuyer returns the buyer contact snapshot with the phone in E.164.
func (d *Directory) LookupBuyer(ctx context.Context, id uuid.UUID) (ports.BuyerProfile, error) {
	company, err := d.company(ctx, id)
	if err != nil {
		return ports.BuyerProfile{}, err
	}

	name := company.ContactName
	if name == "" {
		name = company.Name
	}
	return ports.BuyerProfile{
		ID:      company.ID,
		Name:    name,
		Company: company.Name,
		Email:   company.Email,
		Phone:   phone.NormalizeE164InRegion(company.Phone, company.CountryCode),
		Address: company.Address,
	}, nil
}

// LookupSupplier returns the supplier display name.
func (d *Directory) LookupSupplier(ctx context.Context, id uuid.UUID) (ports.SupplierProfile, error) {
	company, err := d.company(ctx, id)
	if err != nil {
		return ports.SupplierProfile{}, err
	}
	return ports.SupplierProfile{ID: company.ID, Name: company.Name}, nil
}

// Contact returns the name and email notifications for a party go to.
func (d *Directory) Contact(ctx context.Context, id uuid.UUID) (string, string, error) {
	company, err := d.company(ctx, id)
	if err != nil {
		return "", "", err
	}
	name := company.ContactName
	if name == "" {
		name = company.Name
	}
	return name, company.Email, nil
}

// Invalidate drops a cached record so the next lookup refetches it.
func (d *Directory) Invalidate(ctx context.Context, id uuid.UUID) error {
	return d.cache.Invalidate(ctx, id)
}

func (d *Directory) company(ctx context.Context, id uuid.UUID) (Company, error) {
	cached, ok, err := d.cache.Get(ctx, id)
	if err != nil {
		d.log.Warn("directory cache read failed", "companyId", id, "error", err)
	}
	if ok {
		return *cached, nil
	}

	company, err := d.source.GetCompany(ctx, id)
	if err != nil {
		return Company{}, err
	}

	if d.ttl > 0 {
		if err := d.cache.Set(ctx, company, d.ttl); err != nil {
			d.log.Warn("directory cache write failed", "companyId", id, "error", err)
		}
	}
	return company, nil
}

var _ ports.PartyDirectory = (*Directory)(nil)
