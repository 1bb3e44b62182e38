// Package store holds the optimistic state cache: the freshest known view
// of domain entities, blending remote-confirmed state with local mutations
// that have not been acknowledged yet. The UI renders from here and never
// needs to know which entities are confirmed.
package store

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hotshotfinger/geprekpos/backend/internal/logging"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/uuid"
)

// Persister is the slice of the repository the store needs. Write errors
// degrade durability, never correctness: the in-memory state stays the
// source of truth for the running session.
type Persister interface {
	UpsertSale(*models.Sale) error
	DeleteSale(localID string) error
	ListSales() ([]*models.Sale, error)

	GetStock() (*models.Stock, error)
	SaveStock(*models.Stock) error

	UpsertFinancialNote(*models.FinancialNote) error
	DeleteFinancialNote(localID string) error
	ListFinancialNotes() ([]*models.FinancialNote, error)

	UpsertGeneralNote(*models.GeneralNote) error
	DeleteGeneralNote(localID string) error
	ListGeneralNotes() ([]*models.GeneralNote, error)

	ReplaceProducts([]*models.Product) error
	ListProducts() ([]*models.Product, error)

	GetAutoPost() (*models.AutoPostConfig, models.AutoPostStatus, error)
	SaveAutoPost(*models.AutoPostConfig, models.AutoPostStatus) error
}

// Store is the single state container, created once at process start and
// injected into every component that needs it.
type Store struct {
	mu sync.Mutex

	sales          []*models.Sale // newest first
	stock          models.Stock
	financialNotes []*models.FinancialNote
	generalNotes   []*models.GeneralNote
	products       []*models.Product
	autoPostCfg    models.AutoPostConfig
	autoPostStatus models.AutoPostStatus

	repo Persister
	log  *logrus.Entry
}

// New creates an empty Store backed by the given persister.
func New(repo Persister) *Store {
	return &Store{
		repo:           repo,
		autoPostStatus: models.AutoPostStopped,
		log:            logging.WithComponent("store"),
	}
}

// Load reads the persisted snapshot so the UI can render before the first
// network round trip. Must be called before any mutation is applied.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.repo.ListSales()
	if err != nil {
		return err
	}
	s.sales = sales

	stock, err := s.repo.GetStock()
	if err != nil {
		return err
	}
	s.stock = *stock

	fin, err := s.repo.ListFinancialNotes()
	if err != nil {
		return err
	}
	s.financialNotes = fin

	gen, err := s.repo.ListGeneralNotes()
	if err != nil {
		return err
	}
	s.generalNotes = gen

	products, err := s.repo.ListProducts()
	if err != nil {
		return err
	}
	s.products = products

	cfg, status, err := s.repo.GetAutoPost()
	if err != nil {
		return err
	}
	s.autoPostCfg = *cfg
	s.autoPostStatus = status

	return nil
}

func (s *Store) persistWarn(op string, err error) {
	if err != nil {
		// Durability for this write is lost; the session keeps running
		// on in-memory state.
		s.log.WithFields(logrus.Fields{"op": op}).WithError(err).
			Warn("failed to persist state, continuing in memory")
	}
}

// =====================================================
// Sales
// =====================================================

// ApplyCreateSale inserts a new sale optimistically with a placeholder id
// and returns a copy. The caller correlates the returned LocalID with the
// queued create mutation.
func (s *Store) ApplyCreateSale(productID, productName string, price, quantity int64) models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale := &models.Sale{
		LocalID:     uuid.NewLocal(),
		ProductID:   productID,
		ProductName: productName,
		Price:       price,
		Quantity:    quantity,
		Date:        time.Now().Unix(),
	}
	sale.RecomputeTotal()

	s.sales = append([]*models.Sale{sale}, s.sales...)
	s.persistWarn("create sale", s.repo.UpsertSale(sale))
	return *sale
}

// ApplyUpdateSale merges partial fields into the matching sale and
// recomputes the total. Returns false (and logs) when the id is unknown.
func (s *Store) ApplyUpdateSale(id string, fields models.SaleFields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale := s.findSale(id)
	if sale == nil {
		s.log.WithFields(logrus.Fields{"sale_id": id}).
			Warn("update for unknown sale ignored")
		return false
	}
	sale.Apply(fields)
	s.persistWarn("update sale", s.repo.UpsertSale(sale))
	return true
}

// ReconcileSale replaces a placeholder-id sale with its server identity
// once the queued create has been acknowledged. Field values are kept; only
// the identity changes.
func (s *Store) ReconcileSale(localID, objectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale := s.findSale(localID)
	if sale == nil {
		s.log.WithFields(logrus.Fields{"local_id": localID}).
			Warn("reconcile for unknown sale ignored")
		return false
	}
	sale.ObjectID = objectID
	s.persistWarn("reconcile sale", s.repo.UpsertSale(sale))
	return true
}

// RemoveSale deletes a sale from the cache by either id.
func (s *Store) RemoveSale(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sale := range s.sales {
		if sale.LocalID == id || sale.ObjectID == id {
			s.sales = append(s.sales[:i], s.sales[i+1:]...)
			s.persistWarn("delete sale", s.repo.DeleteSale(sale.LocalID))
			return true
		}
	}
	return false
}

// SetSales replaces the cached sales with a confirmed remote listing.
func (s *Store) SetSales(sales []*models.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sales = sales
	for _, sale := range sales {
		sale.RecomputeTotal()
		s.persistWarn("set sales", s.repo.UpsertSale(sale))
	}
}

// Sales returns a copy of the cached sales, newest first. Reads observe
// every prior apply immediately: there is no asynchronous gap between a
// mutation and its visibility.
func (s *Store) Sales() []models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Sale, len(s.sales))
	for i, sale := range s.sales {
		out[i] = *sale
	}
	return out
}

// SalesToday returns today's sales (local time).
func (s *Store) SalesToday() []models.Sale {
	now := time.Now()
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Sale
	for _, sale := range s.sales {
		if sale.Date >= dayStart {
			out = append(out, *sale)
		}
	}
	return out
}

// TotalSalesToday sums today's sale totals in rupiah.
func (s *Store) TotalSalesToday() int64 {
	var total int64
	for _, sale := range s.SalesToday() {
		total += sale.Total
	}
	return total
}

// ItemsSoldToday sums today's sold quantities.
func (s *Store) ItemsSoldToday() int64 {
	var count int64
	for _, sale := range s.SalesToday() {
		count += sale.Quantity
	}
	return count
}

// findSale matches by server id first, then placeholder id. Caller holds
// the lock.
func (s *Store) findSale(id string) *models.Sale {
	for _, sale := range s.sales {
		if sale.ObjectID == id || sale.LocalID == id {
			return sale
		}
	}
	return nil
}

// =====================================================
// Stock
// =====================================================

// Stock returns a copy of the inventory counters.
func (s *Store) Stock() models.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock
}

// ApplyStock merges partial absolute values into the stock.
func (s *Store) ApplyStock(fields models.StockFields) models.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stock.Apply(fields)
	s.persistWarn("update stock", s.repo.SaveStock(&s.stock))
	return s.stock
}

// TransferRawToFrying moves n chickens from the raw fridge to the frying
// queue as one paired update: the decrement and increment happen together
// or not at all. Returns the paired fields for the replay payload.
func (s *Store) TransferRawToFrying(n int64) (models.StockFields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || s.stock.RawChicken < n {
		return models.StockFields{}, false
	}
	s.stock.RawChicken -= n
	s.stock.FriedPlanning += n
	s.persistWarn("transfer stock", s.repo.SaveStock(&s.stock))

	return models.StockFields{
		RawChicken:    models.Int64Ptr(s.stock.RawChicken),
		FriedPlanning: models.Int64Ptr(s.stock.FriedPlanning),
	}, true
}

// CompleteFrying moves everything in the frying queue to cooked stock as
// one paired update.
func (s *Store) CompleteFrying() (models.StockFields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stock.FriedPlanning == 0 {
		return models.StockFields{}, false
	}
	s.stock.CookedChicken += s.stock.FriedPlanning
	s.stock.FriedPlanning = 0
	s.persistWarn("complete frying", s.repo.SaveStock(&s.stock))

	return models.StockFields{
		FriedPlanning: models.Int64Ptr(0),
		CookedChicken: models.Int64Ptr(s.stock.CookedChicken),
	}, true
}

// ConsumeCooked decrements cooked stock for a chicken-product sale,
// clamping at zero, and returns the partial update for replay.
func (s *Store) ConsumeCooked(n int64) models.StockFields {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stock.CookedChicken -= n
	if s.stock.CookedChicken < 0 {
		s.stock.CookedChicken = 0
	}
	s.persistWarn("consume cooked", s.repo.SaveStock(&s.stock))

	return models.StockFields{
		CookedChicken: models.Int64Ptr(s.stock.CookedChicken),
	}
}

// =====================================================
// Notes
// =====================================================

// ApplyCreateFinancialNote inserts a calculator note optimistically.
func (s *Store) ApplyCreateFinancialNote(expression string, result decimal.Decimal, category, subCategory, description string) models.FinancialNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	note := &models.FinancialNote{
		LocalID:     uuid.NewLocal(),
		Expression:  expression,
		Result:      result,
		Category:    category,
		SubCategory: subCategory,
		Description: description,
		Timestamp:   time.Now().Unix(),
	}
	s.financialNotes = append([]*models.FinancialNote{note}, s.financialNotes...)
	s.persistWarn("create financial note", s.repo.UpsertFinancialNote(note))
	return *note
}

// ReconcileFinancialNote adopts the server id for a placeholder note.
func (s *Store) ReconcileFinancialNote(localID, objectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, note := range s.financialNotes {
		if note.LocalID == localID {
			note.ObjectID = objectID
			s.persistWarn("reconcile financial note", s.repo.UpsertFinancialNote(note))
			return true
		}
	}
	s.log.WithFields(logrus.Fields{"local_id": localID}).
		Warn("reconcile for unknown financial note ignored")
	return false
}

// RemoveFinancialNote deletes a financial note by either id.
func (s *Store) RemoveFinancialNote(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, note := range s.financialNotes {
		if note.LocalID == id || note.ObjectID == id {
			s.financialNotes = append(s.financialNotes[:i], s.financialNotes[i+1:]...)
			s.persistWarn("delete financial note", s.repo.DeleteFinancialNote(note.LocalID))
			return true
		}
	}
	return false
}

// FinancialNotes returns a copy of the cached financial notes.
func (s *Store) FinancialNotes() []models.FinancialNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.FinancialNote, len(s.financialNotes))
	for i, note := range s.financialNotes {
		out[i] = *note
	}
	return out
}

// ImportFinancialNote adds a note restored from a backup, keeping its ids
// and timestamp. Returns false when a note with either id already exists.
func (s *Store) ImportFinancialNote(note models.FinancialNote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.financialNotes {
		if existing.LocalID == note.LocalID ||
			(note.ObjectID != "" && existing.ObjectID == note.ObjectID) {
			return false
		}
	}
	if note.LocalID == "" {
		note.LocalID = uuid.NewLocal()
	}
	n := note
	s.financialNotes = append(s.financialNotes, &n)
	s.persistWarn("import financial note", s.repo.UpsertFinancialNote(&n))
	return true
}

// ApplyCreateGeneralNote inserts a general note optimistically.
func (s *Store) ApplyCreateGeneralNote(title, content string) models.GeneralNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	note := &models.GeneralNote{
		LocalID:   uuid.NewLocal(),
		Title:     title,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}
	s.generalNotes = append([]*models.GeneralNote{note}, s.generalNotes...)
	s.persistWarn("create general note", s.repo.UpsertGeneralNote(note))
	return *note
}

// ReconcileGeneralNote adopts the server id for a placeholder note.
func (s *Store) ReconcileGeneralNote(localID, objectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, note := range s.generalNotes {
		if note.LocalID == localID {
			note.ObjectID = objectID
			s.persistWarn("reconcile general note", s.repo.UpsertGeneralNote(note))
			return true
		}
	}
	s.log.WithFields(logrus.Fields{"local_id": localID}).
		Warn("reconcile for unknown general note ignored")
	return false
}

// RemoveGeneralNote deletes a general note by either id.
func (s *Store) RemoveGeneralNote(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, note := range s.generalNotes {
		if note.LocalID == id || note.ObjectID == id {
			s.generalNotes = append(s.generalNotes[:i], s.generalNotes[i+1:]...)
			s.persistWarn("delete general note", s.repo.DeleteGeneralNote(note.LocalID))
			return true
		}
	}
	return false
}

// GeneralNotes returns a copy of the cached general notes.
func (s *Store) GeneralNotes() []models.GeneralNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.GeneralNote, len(s.generalNotes))
	for i, note := range s.generalNotes {
		out[i] = *note
	}
	return out
}

// ImportGeneralNote adds a note restored from a backup, keeping its ids
// and timestamp. Returns false when a note with either id already exists.
func (s *Store) ImportGeneralNote(note models.GeneralNote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.generalNotes {
		if existing.LocalID == note.LocalID ||
			(note.ObjectID != "" && existing.ObjectID == note.ObjectID) {
			return false
		}
	}
	if note.LocalID == "" {
		note.LocalID = uuid.NewLocal()
	}
	n := note
	s.generalNotes = append(s.generalNotes, &n)
	s.persistWarn("import general note", s.repo.UpsertGeneralNote(&n))
	return true
}

// =====================================================
// Products
// =====================================================

// SetProducts replaces the cached product catalog.
func (s *Store) SetProducts(products []*models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = products
	s.persistWarn("set products", s.repo.ReplaceProducts(products))
}

// Products returns a copy of the cached catalog.
func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Product, len(s.products))
	for i, p := range s.products {
		out[i] = *p
	}
	return out
}

// FindProduct looks up a product by its server id.
func (s *Store) FindProduct(objectID string) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.ObjectID == objectID {
			return *p, true
		}
	}
	return models.Product{}, false
}

// =====================================================
// Auto-post
// =====================================================

// AutoPost returns the current auto-post config and status.
func (s *Store) AutoPost() (models.AutoPostConfig, models.AutoPostStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPostCfg, s.autoPostStatus
}

// SetAutoPostConfig replaces the auto-post configuration.
func (s *Store) SetAutoPostConfig(cfg models.AutoPostConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.autoPostCfg = cfg
	s.persistWarn("save autopost", s.repo.SaveAutoPost(&s.autoPostCfg, s.autoPostStatus))
}

// SetAutoPostStatus flips the auto-post status.
func (s *Store) SetAutoPostStatus(status models.AutoPostStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.autoPostStatus = status
	s.persistWarn("save autopost", s.repo.SaveAutoPost(&s.autoPostCfg, s.autoPostStatus))
}
