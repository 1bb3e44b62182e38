package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hotshotfinger/geprekpos/backend/internal/gateway"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/store"
	"github.com/hotshotfinger/geprekpos/backend/internal/sync/queue"
	"github.com/hotshotfinger/geprekpos/backend/internal/uuid"
)

// nopPersister satisfies store.Persister without touching disk.
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

// fakeConn is a settable Connectivity for tests.
type fakeConn struct {
	online        bool
	markedOffline bool
}

func (f *fakeConn) IsOnline() bool { return f.online }
func (f *fakeConn) MarkOffline() {
	f.online = false
	f.markedOffline = true
}

func newTestRecorder(gw *fakeGateway, conn *fakeConn) (*Recorder, *store.Store, *queue.DurableQueue) {
	st := store.New(nopPersister{})
	st.SetProducts([]*models.Product{
		{ObjectID: "p1", Code: "GO", Name: "Geprek Original", Price: 10000, UseChicken: true},
		{ObjectID: "p2", Code: "ET", Name: "Es Teh", Price: 3000, UseChicken: false},
	})
	q := queue.New(nopStore{}, 5, 300)
	r := NewRecorder(st, q, gw, conn, time.Second)
	return r, st, q
}

func TestRecordSaleAppliesOptimisticallyAndComputesTotal(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: false}
	r, st, q := newTestRecorder(gw, conn)

	sale, err := r.RecordSale(context.Background(), "p1", 2)
	if err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	if sale.Total != 20000 {
		t.Errorf("expected total 20000, got %d", sale.Total)
	}
	if !uuid.IsLocal(sale.LocalID) {
		t.Errorf("expected placeholder id, got %s", sale.LocalID)
	}

	// Visible immediately, before any sync.
	sales := st.Sales()
	if len(sales) != 1 || sales[0].LocalID != sale.LocalID {
		t.Fatal("sale not visible in the store")
	}
	// Offline: create plus the cooked-stock decrement are queued.
	if q.Len() != 2 {
		t.Fatalf("expected 2 queued mutations, got %d", q.Len())
	}
	if len(gw.callLog()) != 0 {
		t.Error("offline sale reached the gateway")
	}
}

func TestRecordSaleConsumesCookedStockOnlyForChickenProducts(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: false}
	r, st, q := newTestRecorder(gw, conn)

	st.ApplyStock(models.StockFields{CookedChicken: models.Int64Ptr(10)})
	q.Clear()

	if _, err := r.RecordSale(context.Background(), "p1", 3); err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	if got := st.Stock().CookedChicken; got != 7 {
		t.Errorf("expected 7 cooked left, got %d", got)
	}

	before := st.Stock().CookedChicken
	if _, err := r.RecordSale(context.Background(), "p2", 5); err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	if got := st.Stock().CookedChicken; got != before {
		t.Errorf("drink sale changed cooked stock: %d -> %d", before, got)
	}
}

func TestRecordSaleDispatchesDirectlyWhenOnline(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: true}
	r, st, q := newTestRecorder(gw, conn)

	sale, err := r.RecordSale(context.Background(), "p2", 1)
	if err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("online sale with empty queue was queued")
	}
	if len(gw.callLog()) != 1 {
		t.Fatalf("expected 1 gateway call, got %v", gw.callLog())
	}

	// Direct create reconciles the placeholder immediately.
	sales := st.Sales()
	if sales[0].ObjectID == "" {
		t.Error("direct create not reconciled")
	}
	_ = sale
}

func TestRecordSaleQueuesBehindExistingBacklog(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: true}
	r, _, q := newTestRecorder(gw, conn)

	// A backlog exists; a fresh mutation must not overtake it.
	q.Enqueue(&models.Mutation{
		Kind:        models.KindUpdateStock,
		UpdateStock: &models.UpdateStockPayload{Fields: models.StockFields{RawChicken: models.Int64Ptr(5)}},
	})

	if _, err := r.RecordSale(context.Background(), "p2", 1); err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}
	if len(gw.callLog()) != 0 {
		t.Error("mutation bypassed the backlog")
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 queued, got %d", q.Len())
	}
}

func TestRecordSaleFallsBackToQueueOnConnectivityFailure(t *testing.T) {
	gw := &fakeGateway{}
	gw.outcome = func(string) error {
		return fmt.Errorf("%w: connection refused", gateway.ErrUnreachable)
	}
	conn := &fakeConn{online: true}
	r, st, q := newTestRecorder(gw, conn)

	sale, err := r.RecordSale(context.Background(), "p2", 1)
	if err != nil {
		t.Fatalf("connectivity failure must not surface as an error: %v", err)
	}
	if !conn.markedOffline {
		t.Error("monitor not flipped offline")
	}
	if q.Len() != 1 {
		t.Fatalf("mutation lost: queue has %d entries", q.Len())
	}
	// Optimistic state stays.
	if len(st.Sales()) != 1 || st.Sales()[0].LocalID != sale.LocalID {
		t.Error("optimistic sale lost")
	}
}

func TestRecordSaleSurfacesRejectionAndKeepsOptimisticState(t *testing.T) {
	gw := &fakeGateway{}
	gw.outcome = func(string) error {
		return &gateway.RejectionError{StatusCode: 400, Body: []byte(`{"message":"nope"}`)}
	}
	conn := &fakeConn{online: true}
	r, st, q := newTestRecorder(gw, conn)

	_, err := r.RecordSale(context.Background(), "p2", 1)
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if q.Len() != 0 {
		t.Error("rejected direct send must not queue")
	}
	if len(st.Sales()) != 1 {
		t.Error("optimistic sale rolled back on rejection")
	}
}

func TestRecordSaleUpdateOnPlaceholderAlwaysQueues(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: true}
	r, _, q := newTestRecorder(gw, conn)

	// Create a placeholder sale by going through the offline path first.
	conn.online = false
	sale, _ := r.RecordSale(context.Background(), "p2", 1)
	conn.online = true

	price := int64(3500)
	if err := r.RecordSaleUpdate(context.Background(), sale.LocalID, models.SaleFields{Price: &price}); err != nil {
		t.Fatalf("RecordSaleUpdate failed: %v", err)
	}
	for _, call := range gw.callLog() {
		if call == "update:"+gateway.TableSales+":"+sale.LocalID {
			t.Fatal("placeholder-target update sent directly")
		}
	}
	if q.Len() != 2 { // create + update
		t.Errorf("expected 2 queued, got %d", q.Len())
	}
}

func TestRecordSaleDeleteOfUnconfirmedCancelsQueuedCreate(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: false}
	r, st, q := newTestRecorder(gw, conn)

	sale, _ := r.RecordSale(context.Background(), "p2", 1)
	if q.Len() != 1 {
		t.Fatalf("expected queued create, got %d", q.Len())
	}

	conn.online = true
	if err := r.RecordSaleDelete(context.Background(), sale.LocalID); err != nil {
		t.Fatalf("RecordSaleDelete failed: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("create not cancelled, queue has %d", q.Len())
	}
	if len(gw.callLog()) != 0 {
		t.Error("delete of an unconfirmed sale reached the gateway")
	}
	if len(st.Sales()) != 0 {
		t.Error("sale still in the store")
	}
}

func TestRecordTransferToFryingMovesPairedCounters(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: false}
	r, st, q := newTestRecorder(gw, conn)

	st.ApplyStock(models.StockFields{RawChicken: models.Int64Ptr(10)})
	q.Clear()

	stock, err := r.RecordTransferToFrying(context.Background(), 4)
	if err != nil {
		t.Fatalf("RecordTransferToFrying failed: %v", err)
	}
	if stock.RawChicken != 6 || stock.FriedPlanning != 4 {
		t.Errorf("unexpected stock after transfer: %+v", stock)
	}

	// The queued mutation carries both counters together.
	pending := q.PeekAll()
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued stock mutation, got %d", len(pending))
	}
	fields := pending[0].UpdateStock.Fields
	if fields.RawChicken == nil || fields.FriedPlanning == nil {
		t.Fatal("paired stock move queued with a missing side")
	}
	if *fields.RawChicken != 6 || *fields.FriedPlanning != 4 {
		t.Errorf("queued values wrong: raw=%d frying=%d", *fields.RawChicken, *fields.FriedPlanning)
	}
}

func TestRecordTransferToFryingRejectsInsufficientRaw(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: false}
	r, st, q := newTestRecorder(gw, conn)

	st.ApplyStock(models.StockFields{RawChicken: models.Int64Ptr(2)})
	q.Clear()

	if _, err := r.RecordTransferToFrying(context.Background(), 5); err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if st.Stock().RawChicken != 2 || st.Stock().FriedPlanning != 0 {
		t.Error("failed transfer mutated stock")
	}
	if q.Len() != 0 {
		t.Error("failed transfer queued a mutation")
	}
}

func TestRecordFinancialNoteDerivesResult(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: false}
	r, _, q := newTestRecorder(gw, conn)

	note, err := r.RecordFinancialNote(context.Background(), "15000*3", "Penjualan", "Geprek Original", "")
	if err != nil {
		t.Fatalf("RecordFinancialNote failed: %v", err)
	}
	if note.Result.String() != "45000" {
		t.Errorf("expected result 45000, got %s", note.Result.String())
	}
	if q.Len() != 1 {
		t.Errorf("note create not queued")
	}
}

func TestRecordFinancialNoteRejectsUnknownCategory(t *testing.T) {
	gw := &fakeGateway{}
	conn := &fakeConn{online: false}
	r, _, _ := newTestRecorder(gw, conn)

	if _, err := r.RecordFinancialNote(context.Background(), "100+1", "Bogus", "", ""); err == nil {
		t.Fatal("expected category validation error")
	}
}
