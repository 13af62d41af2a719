package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// SeedSeller registers a seller for contact.
func SeedSeller(t *testing.T, s repository.Store, id, contact string) *domain.Seller {
	t.Helper()
	seller := &domain.Seller{ID: id, Name: "Seller " + id, WhatsApp: contact}
	if err := s.UpsertSeller(context.Background(), seller); err != nil {
		t.Fatalf("failed to seed seller: %v", err)
	}
	return seller
}

// SeedRider registers an active rider for contact.
func SeedRider(t *testing.T, s repository.Store, id, contact string) *domain.Rider {
	t.Helper()
	rider := &domain.Rider{ID: id, Name: "Rider " + id, WhatsApp: contact, Status: domain.RiderStatusActive}
	if err := s.UpsertRider(context.Background(), rider); err != nil {
		t.Fatalf("failed to seed rider: %v", err)
	}
	return rider
}

// SeedJob creates a requested delivery job.
func SeedJob(t *testing.T, s repository.Store, id string, fee float64) *domain.DeliveryJob {
	t.Helper()
	job := &domain.DeliveryJob{
		ID:              id,
		SellerID:        "seller-1",
		PickupLocation:  "Makola Market",
		DropoffLocation: "East Legon",
		QuotedFee:       fee,
		Status:          domain.JobStatusRequested,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("failed to seed job: %v", err)
	}
	return job
}
