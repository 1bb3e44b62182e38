// Package db provides CRUD repository operations for geprekpos data models.
package db

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/hotshotfinger/geprekpos/backend/internal/models"
)

// Repository provides persistence for the mutation queue and the cached
// entity snapshot. The queue and store depend on it through narrow
// interfaces so the storage backend stays swappable.
type Repository struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PrepareStmt gets or creates a prepared statement from the cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate.
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// =====================================================
// Mutation queue operations
// =====================================================

// InsertMutation appends a mutation to the durable queue. Enqueue order is
// captured by the autoincrement seq column.
func (r *Repository) InsertMutation(m *models.Mutation) error {
	payload, err := m.EncodePayload()
	if err != nil {
		return err
	}

	query := `
	INSERT INTO mutation_queue (id, kind, payload, attempts, status, last_error, enqueued_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(m.ID, string(m.Kind), string(payload), m.Attempts,
		string(m.Status), m.LastError, m.EnqueuedAt)
	return err
}

// DeleteMutation removes a mutation by id. Deleting an absent id is not an
// error; replay removal must stay idempotent.
func (r *Repository) DeleteMutation(id string) error {
	stmt, err := r.PrepareStmt("DELETE FROM mutation_queue WHERE id = ?")
	if err != nil {
		return err
	}
	_, err = stmt.Exec(id)
	return err
}

// UpdateMutationFailure records a failed replay attempt.
func (r *Repository) UpdateMutationFailure(m *models.Mutation) error {
	stmt, err := r.PrepareStmt(
		"UPDATE mutation_queue SET attempts = ?, status = ?, last_error = ? WHERE id = ?")
	if err != nil {
		return err
	}
	_, err = stmt.Exec(m.Attempts, string(m.Status), m.LastError, m.ID)
	return err
}

// UpdateMutationPayload rewrites the stored payload of a queued mutation,
// used when a placeholder id inside it gets reconciled mid-queue.
func (r *Repository) UpdateMutationPayload(m *models.Mutation) error {
	payload, err := m.EncodePayload()
	if err != nil {
		return err
	}
	stmt, err := r.PrepareStmt("UPDATE mutation_queue SET payload = ? WHERE id = ?")
	if err != nil {
		return err
	}
	_, err = stmt.Exec(string(payload), m.ID)
	return err
}

// ListMutations returns every queued mutation in enqueue (seq) order,
// including dead-lettered ones.
func (r *Repository) ListMutations() ([]*models.Mutation, error) {
	query := `
	SELECT id, kind, payload, attempts, status, last_error, enqueued_at
	FROM mutation_queue ORDER BY seq ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mutations []*models.Mutation
	for rows.Next() {
		var m models.Mutation
		var kind, status, payload string
		if err := rows.Scan(&m.ID, &kind, &payload, &m.Attempts, &status,
			&m.LastError, &m.EnqueuedAt); err != nil {
			return nil, err
		}
		m.Kind = models.Kind(kind)
		m.Status = models.MutationStatus(status)
		if err := m.DecodePayload([]byte(payload)); err != nil {
			return nil, fmt.Errorf("failed to decode payload of mutation %s: %w", m.ID, err)
		}
		mutations = append(mutations, &m)
	}
	return mutations, rows.Err()
}

// ClearMutations drops every queued mutation. Explicit user reset only.
func (r *Repository) ClearMutations() error {
	_, err := r.db.Exec("DELETE FROM mutation_queue")
	return err
}

// =====================================================
// Sale operations
// =====================================================

// UpsertSale writes a sale row keyed by its local id.
func (r *Repository) UpsertSale(s *models.Sale) error {
	query := `
	INSERT INTO sales (local_id, object_id, product_id, product_name, price, quantity, total, date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(local_id) DO UPDATE SET
		object_id = excluded.object_id,
		product_id = excluded.product_id,
		product_name = excluded.product_name,
		price = excluded.price,
		quantity = excluded.quantity,
		total = excluded.total,
		date = excluded.date
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(s.LocalID, s.ObjectID, s.ProductID, s.ProductName,
		s.Price, s.Quantity, s.Total, s.Date)
	return err
}

// DeleteSale removes a sale row by local id.
func (r *Repository) DeleteSale(localID string) error {
	stmt, err := r.PrepareStmt("DELETE FROM sales WHERE local_id = ?")
	if err != nil {
		return err
	}
	_, err = stmt.Exec(localID)
	return err
}

// ListSales returns all cached sales, newest first.
func (r *Repository) ListSales() ([]*models.Sale, error) {
	query := `
	SELECT local_id, object_id, product_id, product_name, price, quantity, total, date
	FROM sales ORDER BY date DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.LocalID, &s.ObjectID, &s.ProductID, &s.ProductName,
			&s.Price, &s.Quantity, &s.Total, &s.Date); err != nil {
			return nil, err
		}
		sales = append(sales, &s)
	}
	return sales, rows.Err()
}

// =====================================================
// Stock operations
// =====================================================

// GetStock reads the singleton stock row.
func (r *Repository) GetStock() (*models.Stock, error) {
	var s models.Stock
	err := r.db.QueryRow(
		"SELECT raw_chicken, fried_planning, cooked_chicken FROM stock WHERE id = 1").
		Scan(&s.RawChicken, &s.FriedPlanning, &s.CookedChicken)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveStock writes the singleton stock row.
func (r *Repository) SaveStock(s *models.Stock) error {
	stmt, err := r.PrepareStmt(
		"UPDATE stock SET raw_chicken = ?, fried_planning = ?, cooked_chicken = ? WHERE id = 1")
	if err != nil {
		return err
	}
	_, err = stmt.Exec(s.RawChicken, s.FriedPlanning, s.CookedChicken)
	return err
}

// =====================================================
// Notes operations
// =====================================================

// UpsertFinancialNote writes a financial note row keyed by its local id.
func (r *Repository) UpsertFinancialNote(n *models.FinancialNote) error {
	query := `
	INSERT INTO financial_notes (local_id, object_id, expression, result, category, sub_category, description, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(local_id) DO UPDATE SET
		object_id = excluded.object_id,
		expression = excluded.expression,
		result = excluded.result,
		category = excluded.category,
		sub_category = excluded.sub_category,
		description = excluded.description,
		timestamp = excluded.timestamp
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(n.LocalID, n.ObjectID, n.Expression, n.Result.String(),
		n.Category, n.SubCategory, n.Description, n.Timestamp)
	return err
}

// DeleteFinancialNote removes a financial note row by local id.
func (r *Repository) DeleteFinancialNote(localID string) error {
	stmt, err := r.PrepareStmt("DELETE FROM financial_notes WHERE local_id = ?")
	if err != nil {
		return err
	}
	_, err = stmt.Exec(localID)
	return err
}

// ListFinancialNotes returns all cached financial notes, newest first.
func (r *Repository) ListFinancialNotes() ([]*models.FinancialNote, error) {
	query := `
	SELECT local_id, object_id, expression, result, category, sub_category, description, timestamp
	FROM financial_notes ORDER BY timestamp DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*models.FinancialNote
	for rows.Next() {
		var n models.FinancialNote
		var result string
		if err := rows.Scan(&n.LocalID, &n.ObjectID, &n.Expression, &result,
			&n.Category, &n.SubCategory, &n.Description, &n.Timestamp); err != nil {
			return nil, err
		}
		dec, err := decimal.NewFromString(result)
		if err != nil {
			return nil, fmt.Errorf("corrupt result for note %s: %w", n.LocalID, err)
		}
		n.Result = dec
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// UpsertGeneralNote writes a general note row keyed by its local id.
func (r *Repository) UpsertGeneralNote(n *models.GeneralNote) error {
	query := `
	INSERT INTO general_notes (local_id, object_id, title, content, timestamp)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(local_id) DO UPDATE SET
		object_id = excluded.object_id,
		title = excluded.title,
		content = excluded.content,
		timestamp = excluded.timestamp
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(n.LocalID, n.ObjectID, n.Title, n.Content, n.Timestamp)
	return err
}

// DeleteGeneralNote removes a general note row by local id.
func (r *Repository) DeleteGeneralNote(localID string) error {
	stmt, err := r.PrepareStmt("DELETE FROM general_notes WHERE local_id = ?")
	if err != nil {
		return err
	}
	_, err = stmt.Exec(localID)
	return err
}

// ListGeneralNotes returns all cached general notes, newest first.
func (r *Repository) ListGeneralNotes() ([]*models.GeneralNote, error) {
	query := `
	SELECT local_id, object_id, title, content, timestamp
	FROM general_notes ORDER BY timestamp DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*models.GeneralNote
	for rows.Next() {
		var n models.GeneralNote
		if err := rows.Scan(&n.LocalID, &n.ObjectID, &n.Title, &n.Content, &n.Timestamp); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// =====================================================
// Product operations
// =====================================================

// ReplaceProducts swaps the cached product catalog for a fresh copy.
func (r *Repository) ReplaceProducts(products []*models.Product) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM products"); err != nil {
		return err
	}
	for _, p := range products {
		_, err := tx.Exec(
			"INSERT INTO products (object_id, code, name, price, use_chicken) VALUES (?, ?, ?, ?, ?)",
			p.ObjectID, p.Code, p.Name, p.Price, p.UseChicken)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListProducts returns the cached product catalog.
func (r *Repository) ListProducts() ([]*models.Product, error) {
	rows, err := r.db.Query(
		"SELECT object_id, code, name, price, use_chicken FROM products ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ObjectID, &p.Code, &p.Name, &p.Price, &p.UseChicken); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// =====================================================
// Auto-post operations
// =====================================================

// GetAutoPost reads the singleton auto-post row.
func (r *Repository) GetAutoPost() (*models.AutoPostConfig, models.AutoPostStatus, error) {
	var cfg models.AutoPostConfig
	var status string
	err := r.db.QueryRow(
		"SELECT caption, interval, start_time, end_time, group_link, status FROM autopost WHERE id = 1").
		Scan(&cfg.Caption, &cfg.Interval, &cfg.StartTime, &cfg.EndTime, &cfg.GroupLink, &status)
	if err != nil {
		return nil, "", err
	}
	return &cfg, models.AutoPostStatus(status), nil
}

// SaveAutoPost writes the singleton auto-post row.
func (r *Repository) SaveAutoPost(cfg *models.AutoPostConfig, status models.AutoPostStatus) error {
	stmt, err := r.PrepareStmt(`
	UPDATE autopost SET caption = ?, interval = ?, start_time = ?, end_time = ?,
		group_link = ?, status = ? WHERE id = 1`)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(cfg.Caption, cfg.Interval, cfg.StartTime, cfg.EndTime,
		cfg.GroupLink, string(status))
	return err
}
