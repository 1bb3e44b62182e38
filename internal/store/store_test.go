package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/uuid"
)

// nopPersister satisfies Persister without touching disk.
type nopPersister struct{}

func (nopPersister) UpsertSale(*models.Sale) error { return nil }
func (nopPersister) DeleteSale(string) error { return nil }
func (nopPersister) ListSales() ([]*models.Sale, error) { return nil, nil }
func (nopPersister) GetStock() (*models.Stock, error) { return &models.Stock{}, nil }
func (nopPersister) SaveStock(*models.Stock) error { return nil }
func (nopPersister) UpsertFinancialNote(*models.FinancialNote) error { return nil }
func (nopPersister) DeleteFinancialNote(string) error { return nil }
func (nopPersister) ListFinancialNotes() ([]*models.FinancialNote, error) { return nil, nil }
func (nopPersister) UpsertGeneralNote(*models.GeneralNote) error { return nil }
func (nopPersister) DeleteGeneralNote(string) error { return nil }
func (nopPersister) ListGeneralNotes() ([]*models.GeneralNote, error) { return nil, nil }
func (nopPersister) ReplaceProducts([]*models.Product) error { return nil }
func (nopPersister) ListProducts() ([]*models.Product, error) { return nil, nil }
func (nopPersister) GetAutoPost() (*models.AutoPostConfig, models.AutoPostStatus, error) {
	return &models.AutoPostConfig{}, models.AutoPostStopped, nil
}
func (nopPersister) SaveAutoPost(*models.AutoPostConfig, models.AutoPostStatus) error { return nil }

func newTestStore() *Store {
	return New(nopPersister{})
}

func TestApplyCreateSaleIsImmediatelyVisible(t *testing.T) {
	st := newTestStore()

	sale := st.ApplyCreateSale("p1", "Geprek Original", 10000, 2)
	if sale.Total != 20000 {
		t.Errorf("expected total 20000, got %d", sale.Total)
	}
	if !uuid.IsLocal(sale.LocalID) {
		t.Errorf("expected placeholder id, got %s", sale.LocalID)
	}

	sales := st.Sales()
	if len(sales) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(sales))
	}
	if sales[0].LocalID != sale.LocalID || sales[0].Total != 20000 {
		t.Errorf("store copy differs from returned sale")
	}
}

func TestApplyUpdateSaleRecomputesTotal(t *testing.T) {
	st := newTestStore()
	sale := st.ApplyCreateSale("p1", "Geprek Original", 10000, 2)

	quantity := int64(5)
	if !st.ApplyUpdateSale(sale.LocalID, models.SaleFields{Quantity: &quantity}) {
		t.Fatal("update rejected")
	}
	got := st.Sales()[0]
	if got.Total != 50000 {
		t.Errorf("total not recomputed: %d", got.Total)
	}

	price := int64(12000)
	st.ApplyUpdateSale(sale.LocalID, models.SaleFields{Price: &price})
	if got := st.Sales()[0].Total; got != 60000 {
		t.Errorf("total not recomputed after price change: %d", got)
	}
}

func TestApplyUpdateSaleUnknownIDIsNoOp(t *testing.T) {
	st := newTestStore()
	price := int64(1)
	if st.ApplyUpdateSale("missing", models.SaleFields{Price: &price}) {
		t.Error("update for unknown sale reported success")
	}
}

func TestReconcileSaleSwapsIdentityKeepsFields(t *testing.T) {
	st := newTestStore()
	sale := st.ApplyCreateSale("p1", "Geprek Original", 10000, 2)

	if !st.ReconcileSale(sale.LocalID, "srv-42") {
		t.Fatal("reconcile rejected")
	}
	got := st.Sales()[0]
	if got.ObjectID != "srv-42" {
		t.Errorf("object id not adopted: %s", got.ObjectID)
	}
	if got.LocalID != sale.LocalID || got.Total != 20000 {
		t.Errorf("reconcile changed more than identity: %+v", got)
	}
	// Lookup by server id now works.
	newPrice := int64(11000)
	if !st.ApplyUpdateSale("srv-42", models.SaleFields{Price: &newPrice}) {
		t.Error("lookup by server id failed after reconcile")
	}
}

func TestTransferRawToFryingIsPaired(t *testing.T) {
	st := newTestStore()
	st.ApplyStock(models.StockFields{RawChicken: models.Int64Ptr(10)})

	fields, ok := st.TransferRawToFrying(4)
	if !ok {
		t.Fatal("transfer rejected")
	}
	if fields.RawChicken == nil || fields.FriedPlanning == nil {
		t.Fatal("transfer returned a half-move")
	}
	if *fields.RawChicken != 6 || *fields.FriedPlanning != 4 {
		t.Errorf("unexpected paired values: raw=%d frying=%d", *fields.RawChicken, *fields.FriedPlanning)
	}

	stock := st.Stock()
	if stock.RawChicken != 6 || stock.FriedPlanning != 4 {
		t.Errorf("stock not updated: %+v", stock)
	}
}

func TestTransferRawToFryingInsufficientLeavesStockUntouched(t *testing.T) {
	st := newTestStore()
	st.ApplyStock(models.StockFields{RawChicken: models.Int64Ptr(3)})

	if _, ok := st.TransferRawToFrying(5); ok {
		t.Fatal("transfer of more than available accepted")
	}
	stock := st.Stock()
	if stock.RawChicken != 3 || stock.FriedPlanning != 0 {
		t.Errorf("failed transfer changed stock: %+v", stock)
	}
}

func TestCompleteFryingMovesWholeBatch(t *testing.T) {
	st := newTestStore()
	st.ApplyStock(models.StockFields{
		FriedPlanning: models.Int64Ptr(5),
		CookedChicken: models.Int64Ptr(2),
	})

	fields, ok := st.CompleteFrying()
	if !ok {
		t.Fatal("complete frying rejected")
	}
	if *fields.FriedPlanning != 0 || *fields.CookedChicken != 7 {
		t.Errorf("unexpected paired values: frying=%d cooked=%d", *fields.FriedPlanning, *fields.CookedChicken)
	}

	if _, ok := st.CompleteFrying(); ok {
		t.Error("complete frying with empty batch accepted")
	}
}

func TestConsumeCookedClampsAtZero(t *testing.T) {
	st := newTestStore()
	st.ApplyStock(models.StockFields{CookedChicken: models.Int64Ptr(2)})

	fields := st.ConsumeCooked(5)
	if fields.CookedChicken == nil || *fields.CookedChicken != 0 {
		t.Errorf("expected clamp at zero, got %v", fields.CookedChicken)
	}
	if st.Stock().CookedChicken != 0 {
		t.Errorf("stock went negative: %d", st.Stock().CookedChicken)
	}
}

func TestFinancialNoteLifecycle(t *testing.T) {
	st := newTestStore()

	note := st.ApplyCreateFinancialNote("15000*3", decimal.NewFromInt(45000), "Penjualan", "Geprek Original", "")
	if !uuid.IsLocal(note.LocalID) {
		t.Errorf("expected placeholder id, got %s", note.LocalID)
	}

	if !st.ReconcileFinancialNote(note.LocalID, "srv-7") {
		t.Fatal("reconcile rejected")
	}
	if got := st.FinancialNotes()[0].ObjectID; got != "srv-7" {
		t.Errorf("object id not adopted: %s", got)
	}

	// Delete works by server id too.
	if !st.RemoveFinancialNote("srv-7") {
		t.Fatal("delete by server id failed")
	}
	if len(st.FinancialNotes()) != 0 {
		t.Error("note still present after delete")
	}
}

func TestImportFinancialNoteSkipsDuplicates(t *testing.T) {
	st := newTestStore()

	note := models.FinancialNote{
		LocalID: "local-import-1", ObjectID: "srv-1",
		Expression: "100+1", Result: decimal.NewFromInt(101),
		Category: "Lainnya", Timestamp: 1700000000,
	}
	if !st.ImportFinancialNote(note) {
		t.Fatal("first import rejected")
	}
	if st.ImportFinancialNote(note) {
		t.Error("duplicate import accepted")
	}

	// Same server id under a different local id is still a duplicate.
	dup := note
	dup.LocalID = "local-import-2"
	if st.ImportFinancialNote(dup) {
		t.Error("duplicate by object id accepted")
	}
	if len(st.FinancialNotes()) != 1 {
		t.Errorf("expected 1 note, got %d", len(st.FinancialNotes()))
	}
}

func TestFindProduct(t *testing.T) {
	st := newTestStore()
	st.SetProducts([]*models.Product{
		{ObjectID: "p1", Name: "Geprek Original", Price: 10000, UseChicken: true},
	})

	if _, ok := st.FindProduct("p1"); !ok {
		t.Error("known product not found")
	}
	if _, ok := st.FindProduct("nope"); ok {
		t.Error("unknown product found")
	}
}

func TestAutoPostState(t *testing.T) {
	st := newTestStore()

	cfg := models.AutoPostConfig{
		Caption: "Promo!", Interval: 60,
		StartTime: "08:00", EndTime: "20:00", GroupLink: "@geprek",
	}
	st.SetAutoPostConfig(cfg)
	st.SetAutoPostStatus(models.AutoPostRunning)

	gotCfg, gotStatus := st.AutoPost()
	if gotCfg.Caption != "Promo!" || gotStatus != models.AutoPostRunning {
		t.Errorf("unexpected autopost state: %+v %s", gotCfg, gotStatus)
	}
}
