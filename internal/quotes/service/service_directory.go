package service

import (
	"context"

	"b2b_marketplace_backend/internal/quotes/domain"

	"github.com/google/uuid"
)

const collaboratorDirectory = "directory"

// buyerSnapshot captures buyer display data. Directory failures are logged
// and the session display name is used instead.
func (s *Service) buyerSnapshot(ctx context.Context, actor Actor) domain.BuyerSnapshot {
	snapshot := domain.BuyerSnapshot{Name: actor.Name}
	if s.directory == nil {
		return snapshot
	}

	profile, err := s.directory.LookupBuyer(ctx, actor.ID)
	if err != nil {
		s.log.WithContext(ctx).CollaboratorFailure(collaboratorDirectory, "lookup_buyer", err)
		return snapshot
	}

	if profile.Name != "" {
		snapshot.Name = profile.Name
	}
	snapshot.Company = profile.Company
	snapshot.Email = profile.Email
	snapshot.Phone = profile.Phone
	snapshot.Address = profile.Address
	return snapshot
}

func (s *Service) supplierName(ctx context.Context, supplierID uuid.UUID) string {
	if s.directory == nil {
		return ""
	}
	profile, err := s.directory.LookupSupplier(ctx, supplierID)
	if err != nil {
		s.log.WithContext(ctx).CollaboratorFailure(collaboratorDirectory, "lookup_supplier", err)
		return ""
	}
	return profile.Name
}
