package ports

import (
	"context"

	"github.com/google/uuid"
)

// BuyerProfile is the buyer contact data the quotes domain snapshots at creation.
type BuyerProfile struct {
	ID      uuid.UUID
	Name    string
	Company string
	Email   string
	Phone   string // E.164 when the source number could be parsed
	Address string
}

// SupplierProfile is the supplier display data.
type SupplierProfile struct {
	ID   uuid.UUID
	Name string
}

// PartyDirectory resolves party display data. Callers treat every error as
// non-fatal and fall back to what the session identity provides.
type PartyDirectory interface {
	LookupBuyer(ctx context.Context, id uuid.UUID) (BuyerProfile, error)
	LookupSupplier(ctx context.Context, id uuid.UUID) (SupplierProfile, error)
}
