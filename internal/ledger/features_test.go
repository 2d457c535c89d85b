package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/store"
)

type ledgerTestContext struct {
	database   *db.DB
	svc        *Service
	warehouses map[string]int64
	products   map[string]int64
	err        error
}

func (c *ledgerTestContext) reset(ctx context.Context) error {
	database, err := db.Open(db.SQLite, ":memory:")
	if err != nil {
		return err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return err
	}
	c.database = database
	c.svc = &Service{DB: database, Audit: audit.NewRecorder(audit.StoreEmitter{DB: database}, nil)}
	c.warehouses = map[string]int64{}
	c.products = map[string]int64{}
	c.err = nil
	return nil
}

func (c *ledgerTestContext) aWarehouse(ctx context.Context, code string) error {
	w, err := store.CreateWarehouse(ctx, c.database, code, code)
	if err != nil {
		return err
	}
	c.warehouses[code] = w.ID
	return nil
}

func (c *ledgerTestContext) aProduct(ctx context.Context, sku string) error {
	p, err := store.CreateProduct(ctx, c.database, store.NewProduct{SKU: sku, Name: sku})
	if err != nil {
		return err
	}
	c.products[sku] = p.ID
	return nil
}

func (c *ledgerTestContext) iAdjust(ctx context.Context, sku, code string, onHand, reserved int) error {
	wid, ok := c.warehouses[code]
	if !ok {
		wid = -1
	}
	_, c.err = c.svc.Adjust(ctx, AdjustRequest{
		WarehouseID:       wid,
		ExternalProductID: c.products[sku],
		DeltaOnHand:       int64(onHand),
		DeltaReserved:     int64(reserved),
	})
	return nil
}

func (c *ledgerTestContext) hasCounters(ctx context.Context, sku, code string, onHand, reserved int) error {
	if c.err != nil {
		return fmt.Errorf("unexpected adjustment error: %w", c.err)
	}
	level, err := store.GetStock(ctx, c.database, c.warehouses[code], c.products[sku])
	if err != nil {
		return err
	}
	if level.OnHand != int64(onHand) || level.Reserved != int64(reserved) {
		return fmt.Errorf("expected %d on hand and %d reserved, got %d and %d",
			onHand, reserved, level.OnHand, level.Reserved)
	}
	return nil
}

func (c *ledgerTestContext) hasAvailable(ctx context.Context, sku, code string, available int) error {
	rows, err := c.svc.Availability(ctx, store.StockFilter{
		WarehouseID:       c.warehouses[code],
		ExternalProductID: c.products[sku],
	})
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return fmt.Errorf("expected one availability row, got %d", len(rows))
	}
	if rows[0].Available != int64(available) {
		return fmt.Errorf("expected %d available, got %d", available, rows[0].Available)
	}
	return nil
}

func (c *ledgerTestContext) theAdjustmentFailsBecauseAReferenceIsMissing() error {
	if !errors.Is(c.err, store.ErrForeignKey) {
		return fmt.Errorf("expected a missing reference error, got %v", c.err)
	}
	return nil
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &ledgerTestContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset(ctx)
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if tc.database != nil {
			tc.database.Close()
		}
		return ctx, err
	})

	sc.Step(`^a warehouse "([^"]*)"$`, tc.aWarehouse)
	sc.Step(`^a product "([^"]*)"$`, tc.aProduct)
	sc.Step(`^I adjust "([^"]*)" in "([^"]*)" by (-?\d+) on hand and (-?\d+) reserved$`, tc.iAdjust)
	sc.Step(`^"([^"]*)" in "([^"]*)" has (\d+) on hand and (\d+) reserved$`, tc.hasCounters)
	sc.Step(`^"([^"]*)" in "([^"]*)" has (\d+) available$`, tc.hasAvailable)
	sc.Step(`^the adjustment fails because a reference is missing$`, tc.theAdjustmentFailsBecauseAReferenceIsMissing)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
