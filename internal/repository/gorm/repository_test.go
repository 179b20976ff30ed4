package gormrepository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"biocatalyst/internal/models"
	"biocatalyst/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.CatalystEvent{}, &models.StraddleOrder{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM straddle_orders")
		db.Exec("DELETE FROM catalyst_events")
	})
	return New(db)
}

func catalystFixture(ticker, identity string, date time.Time) models.CatalystEvent {
	return models.CatalystEvent{
		Ticker:      ticker,
		IdentityKey: identity,
		EventDate:   date,
		Kind:        models.KindRegulatoryDecision,
	}
}

func TestUpsertIgnoreDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	n, err := store.UpsertIgnoreDuplicates(ctx, []models.CatalystEvent{
		catalystFixture("ACME", "drug-x", date),
		catalystFixture("ACME", "drug-y", date),
	})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	dup := catalystFixture("ACME", "drug-x", date)
	dup.Description = "should not overwrite"
	n, err = store.UpsertIgnoreDuplicates(ctx, []models.CatalystEvent{
		dup,
		catalystFixture("BTBI", "drug-z", date),
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("inserted = %d, want 1 (duplicate ignored)", n)
	}

	existing, err := store.GetCatalystByKey(ctx, "ACME", "drug-x", date)
	if err != nil || existing == nil {
		t.Fatalf("get failed: %v, %v", existing, err)
	}
	if existing.Description != "" {
		t.Fatalf("duplicate overwrote row: %q", existing.Description)
	}
}

func TestFindDueUntradedFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	trial := catalystFixture("TRIA", "NCT001", base.AddDate(0, 0, 5))
	trial.Kind = models.KindClinicalTrial
	traded := catalystFixture("DONE", "drug-d", base.AddDate(0, 0, 5))
	traded.Traded = true
	events := []models.CatalystEvent{
		catalystFixture("LATE", "drug-l", base.AddDate(0, 0, 30)),
		catalystFixture("BBBB", "drug-b", base.AddDate(0, 0, 10)),
		catalystFixture("AAAA", "drug-a", base.AddDate(0, 0, 2)),
		trial,
		traded,
	}
	if _, err := store.UpsertIgnoreDuplicates(ctx, events); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	due, err := store.FindDueUntraded(ctx, models.KindRegulatoryDecision, base.AddDate(0, 0, 1), base.AddDate(0, 0, 15))
	if err != nil {
		t.Fatalf("FindDueUntraded failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due catalysts, got %d", len(due))
	}
	if due[0].Ticker != "AAAA" || due[1].Ticker != "BBBB" {
		t.Fatalf("not ordered by event date: %s, %s", due[0].Ticker, due[1].Ticker)
	}
}

func TestMarkTradedClaimsOnlyOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	if _, err := store.UpsertIgnoreDuplicates(ctx, []models.CatalystEvent{
		catalystFixture("ACME", "drug-x", date),
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	claimed, err := store.MarkTraded(ctx, "ACME", "drug-x", date)
	if err != nil {
		t.Fatalf("MarkTraded failed: %v", err)
	}
	if !claimed {
		t.Fatal("first claim should succeed")
	}

	claimed, err = store.MarkTraded(ctx, "ACME", "drug-x", date)
	if err != nil {
		t.Fatalf("second MarkTraded failed: %v", err)
	}
	if claimed {
		t.Fatal("second claim must report the row as already taken")
	}

	claimed, err = store.MarkTraded(ctx, "ACME", "no-such-drug", date)
	if err != nil {
		t.Fatalf("missing-row MarkTraded failed: %v", err)
	}
	if claimed {
		t.Fatal("claim on a missing row must fail")
	}

	ev, err := store.GetCatalystByKey(ctx, "ACME", "drug-x", date)
	if err != nil || ev == nil {
		t.Fatalf("get failed: %v, %v", ev, err)
	}
	if !ev.Traded {
		t.Fatal("traded flag not persisted")
	}
}

func TestListCatalystsFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	trial := catalystFixture("TRIA", "NCT001", base.AddDate(0, 0, 3))
	trial.Kind = models.KindClinicalTrial
	if _, err := store.UpsertIgnoreDuplicates(ctx, []models.CatalystEvent{
		catalystFixture("ACME", "drug-x", base.AddDate(0, 0, 1)),
		trial,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	kind := models.KindClinicalTrial
	items, err := store.ListCatalysts(ctx, repository.ListCatalystsParams{Kind: &kind})
	if err != nil {
		t.Fatalf("ListCatalysts failed: %v", err)
	}
	if len(items) != 1 || items[0].Ticker != "TRIA" {
		t.Fatalf("kind filter broken: %+v", items)
	}

	count, err := store.CountCatalysts(ctx, repository.ListCatalystsParams{})
	if err != nil {
		t.Fatalf("CountCatalysts failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestStraddleOrderRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	order := &models.StraddleOrder{
		CatalystID:  1,
		Ticker:      "ACME",
		CallSymbol:  "ACME261016C00100000",
		PutSymbol:   "ACME261016P00100000",
		Strike:      decimal.NewFromInt(100),
		Expiration:  time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		CallOrderID: "ord-1",
		PutOrderID:  "ord-2",
		SubmittedAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.InsertStraddleOrder(ctx, order); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	ticker := "acme"
	items, err := store.ListStraddleOrders(ctx, repository.ListStraddleOrdersParams{Ticker: &ticker})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 order, got %d", len(items))
	}
	got := items[0]
	if got.CallOrderID != "ord-1" || got.PutOrderID != "ord-2" || !got.Strike.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
