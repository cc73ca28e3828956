// Package market computes per-product demand and allocates sales across
// competing sellers by inverse price weighting.
package market

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/events"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/inventory"
	"github.com/HasashiDaaku/ledger-tycoon-erp/internal/ledger"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/db/models"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/enums"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/rng"
	"github.com/HasashiDaaku/ledger-tycoon-erp/pkg/turnlog"
)

const (
	// priceElasticity scales how hard above-average pricing is punished.
	priceElasticity = 0.5
	// elasticity correction bounds on the nominal allocation
	elasticityFloor = 0.1
	elasticityCeil  = 1.5
)

// Simulator runs the demand and allocation model for one turn.
type Simulator struct {
	repo       Repository
	invRepo    inventory.Repository
	books      ledger.Service
	rand       *rng.Source
	baseDemand float64
}

// NewSimulator wires a market simulator. baseDemand is the constant market
// size before modifiers, typically 1000.
func NewSimulator(repo Repository, invRepo inventory.Repository, books ledger.Service, rand *rng.Source, baseDemand float64) (*Simulator, error) {
	if repo == nil {
		return nil, fmt.Errorf("market repository required")
	}
	if invRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if rand == nil {
		return nil, fmt.Errorf("random source required")
	}
	if baseDemand <= 0 {
		baseDemand = 1000
	}
	return &Simulator{repo: repo, invRepo: invRepo, books: books, rand: rand, baseDemand: baseDemand}, nil
}

// WithTx returns a simulator whose writes join the provided transaction.
func (s *Simulator) WithTx(tx *gorm.DB) *Simulator {
	if tx == nil {
		return s
	}
	return &Simulator{
		repo:       s.repo.WithTx(tx),
		invRepo:    s.invRepo.WithTx(tx),
		books:      s.books.WithTx(tx),
		rand:       s.rand,
		baseDemand: s.baseDemand,
	}
}

// CalculateDemand is base demand x random variation in [0.9,1.1) x the
// engine's seasonal and economic modifiers.
func (s *Simulator) CalculateDemand(ctx context.Context, engine *events.Engine, product models.Product, month int) (float64, events.DemandBreakdown, error) {
	varied := s.baseDemand * s.rand.Between(0.9, 1.1)
	return engine.ApplyDemandModifiers(ctx, varied, month, product.Name)
}

// DistributeSales splits total demand across every company listing the
// product at a positive price. Shares are inverse-price-weighted, then each
// share is corrected for deviation from the average price.
func (s *Simulator) DistributeSales(ctx context.Context, productID int64, totalDemand float64) (map[int64]float64, error) {
	listings, err := s.repo.ListingsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return map[int64]float64{}, nil
	}

	var weightSum, priceSum float64
	for _, listing := range listings {
		weightSum += 1 / listing.Price
		priceSum += listing.Price
	}
	avgPrice := priceSum / float64(len(listings))

	allocation := make(map[int64]float64, len(listings))
	for _, listing := range listings {
		share := (1 / listing.Price) / weightSum
		factor := 1 - ((listing.Price-avgPrice)/avgPrice)*priceElasticity
		if factor < elasticityFloor {
			factor = elasticityFloor
		}
		if factor > elasticityCeil {
			factor = elasticityCeil
		}
		allocation[listing.CompanyID] = totalDemand * share * factor
	}
	return allocation, nil
}

// ProcessSales settles an allocation: units are truncated to integers,
// clamped to on-hand stock, recorded in market history, deducted from
// inventory and posted to the ledger at the listing price and current WAC.
// Companies with zero sellable stock get a history row but no postings.
func (s *Simulator) ProcessSales(ctx context.Context, product models.Product, allocation map[int64]float64, month, year int, tlog *turnlog.Log) error {
	// deterministic iteration keeps seeded runs reproducible
	companyIDs := make([]int64, 0, len(allocation))
	for companyID := range allocation {
		companyIDs = append(companyIDs, companyID)
	}
	sort.Slice(companyIDs, func(i, j int) bool { return companyIDs[i] < companyIDs[j] })

	listings, err := s.repo.ListingsForProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	priceByCompany := make(map[int64]*models.CompanyProduct, len(listings))
	for i := range listings {
		priceByCompany[listings[i].CompanyID] = &listings[i]
	}

	for _, companyID := range companyIDs {
		demand := allocation[companyID]
		listing := priceByCompany[companyID]
		if listing == nil {
			continue
		}

		units := int(demand)
		item, err := s.invRepo.ItemForUpdate(ctx, companyID, product.ID)
		if err != nil {
			return err
		}

		sold := 0
		wac := 0.0
		if item != nil && item.Quantity > 0 {
			sold = units
			if sold > item.Quantity {
				sold = item.Quantity
			}
			wac = item.WAC
		}
		if shortfall := units - sold; shortfall > 0 && tlog != nil {
			tlog.Addf(ctx, "%s: company %d stocked out, %d of %d demanded units lost",
				product.Name, companyID, shortfall, units)
		}

		revenue := float64(sold) * listing.Price
		history := &models.MarketHistory{
			CompanyID:      companyID,
			ProductID:      product.ID,
			Month:          month,
			Year:           year,
			Price:          listing.Price,
			UnitsSold:      sold,
			Revenue:        revenue,
			DemandCaptured: demand,
		}
		if err := s.repo.CreateHistory(ctx, history); err != nil {
			return err
		}

		if sold == 0 {
			continue
		}

		item.Quantity -= sold
		if err := s.invRepo.Save(ctx, item); err != nil {
			return err
		}

		listing.UnitsSold += sold
		listing.Revenue += revenue
		if err := s.repo.SaveListing(ctx, listing); err != nil {
			return err
		}

		if _, err := s.books.CreateTransaction(ctx, ledger.RecordTransactionInput{
			CompanyID:   companyID,
			Description: fmt.Sprintf("Sale of %d x %s @ %.2f (%d/%d)", sold, product.Name, listing.Price, month, year),
			Entries: []ledger.EntryInput{
				{AccountCode: enums.AccountCodeCash, Amount: revenue},
				{AccountCode: enums.AccountCodeSalesRevenue, Amount: -revenue},
			},
		}); err != nil {
			return err
		}

		cogs := float64(sold) * wac
		if cogs > 0 {
			if _, err := s.books.CreateTransaction(ctx, ledger.RecordTransactionInput{
				CompanyID:   companyID,
				Description: fmt.Sprintf("COGS for %d x %s (%d/%d)", sold, product.Name, month, year),
				Entries: []ledger.EntryInput{
					{AccountCode: enums.AccountCodeCOGS, Amount: cogs},
					{AccountCode: enums.AccountCodeInventory, Amount: -cogs},
				},
			}); err != nil {
				return err
			}
		}

		if tlog != nil {
			tlog.Addf(ctx, "%s: company %d sold %d units for %.2f revenue", product.Name, companyID, sold, revenue)
		}
	}
	return nil
}
