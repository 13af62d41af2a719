package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/repository"
	"github.com/makolaonline/whatsapp-router/internal/service"
)

// seedFile lists accounts and demo jobs to load into a fresh database.
type seedFile struct {
	Sellers []domain.Seller `yaml:"sellers"`
	Riders  []domain.Rider  `yaml:"riders"`
	Jobs    []seedJob       `yaml:"jobs"`
}

type seedJob struct {
	SellerID        string  `yaml:"seller_id"`
	PickupLocation  string  `yaml:"pickup_location"`
	DropoffLocation string  `yaml:"dropoff_location"`
	BuyerContact    string  `yaml:"buyer_contact"`
	QuotedFee       float64 `yaml:"quoted_fee"`
	DeliveryNote    string  `yaml:"delivery_note"`
}

type seedResult struct {
	Sellers int
	Riders  int
	Jobs    int
}

func loadSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

func applySeed(ctx context.Context, store repository.Store, svc *service.Service, seed *seedFile) (seedResult, error) {
	var res seedResult
	for i := range seed.Sellers {
		if err := store.UpsertSeller(ctx, &seed.Sellers[i]); err != nil {
			return res, fmt.Errorf("failed to seed seller %s: %w", seed.Sellers[i].ID, err)
		}
		res.Sellers++
	}
	for i := range seed.Riders {
		if err := store.UpsertRider(ctx, &seed.Riders[i]); err != nil {
			return res, fmt.Errorf("failed to seed rider %s: %w", seed.Riders[i].ID, err)
		}
		res.Riders++
	}
	for _, j := range seed.Jobs {
		if _, err := svc.CreateJob(ctx, service.CreateJobRequest{
			SellerID:        j.SellerID,
			PickupLocation:  j.PickupLocation,
			DropoffLocation: j.DropoffLocation,
			BuyerContact:    j.BuyerContact,
			QuotedFee:       j.QuotedFee,
			DeliveryNote:    j.DeliveryNote,
		}); err != nil {
			return res, fmt.Errorf("failed to seed job %d: %w", res.Jobs+1, err)
		}
		res.Jobs++
	}
	return res, nil
}
