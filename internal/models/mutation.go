package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind tags a queued mutation variant.
type Kind string

const (
	KindCreateSale          Kind = "create_sale"
	KindUpdateSale          Kind = "update_sale"
	KindUpdateStock         Kind = "update_stock"
	KindCreateFinancialNote Kind = "create_financial_note"
	KindCreateGeneralNote   Kind = "create_general_note"
	KindDeleteEntity        Kind = "delete_entity"
)

// MutationStatus is the lifecycle state of a queued mutation.
type MutationStatus string

const (
	// MutationPending means the mutation awaits a successful replay.
	MutationPending MutationStatus = "pending"
	// MutationFailed means the mutation was rejected past the attempt
	// ceiling and is dead-lettered: kept visible, excluded from drains.
	MutationFailed MutationStatus = "failed"
)

// CreateSalePayload replays a sale recorded while offline.
type CreateSalePayload struct {
	LocalID     string `json:"localId"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
	Date        int64  `json:"date"`
}

// UpdateSalePayload replays a partial edit of an existing sale. SaleID may
// be a local placeholder when the targeted create has not been confirmed
// yet; the processor rewrites it after the create reconciles.
type UpdateSalePayload struct {
	SaleID string     `json:"saleId"`
	Fields SaleFields `json:"fields"`
}

// UpdateStockPayload replays a partial stock update. Paired counter moves
// carry both fields so replay applies them atomically.
type UpdateStockPayload struct {
	Fields StockFields `json:"fields"`
}

// CreateFinancialNotePayload replays a calculator note creation.
type CreateFinancialNotePayload struct {
	LocalID     string          `json:"localId"`
	Expression  string          `json:"expression"`
	Result      decimal.Decimal `json:"result"`
	Category    string          `json:"category"`
	SubCategory string          `json:"subCategory"`
	Description string          `json:"description"`
	Timestamp   int64           `json:"timestamp"`
}

// CreateGeneralNotePayload replays a general note creation.
type CreateGeneralNotePayload struct {
	LocalID   string `json:"localId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// DeleteEntityPayload replays a deletion against a remote table. Used for
// sales and notes alike; deletes of never-confirmed entities are resolved
// locally and never queued.
type DeleteEntityPayload struct {
	Table    string `json:"table"`
	ObjectID string `json:"objectId"`
}

// Mutation is one pending write operation in the durable queue. Exactly one
// payload pointer is set, matching Kind.
type Mutation struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	EnqueuedAt int64          `json:"enqueuedAt"`
	Attempts   int            `json:"attempts"`
	Status     MutationStatus `json:"status"`
	LastError  string         `json:"lastError,omitempty"`

	CreateSale          *CreateSalePayload          `json:"createSale,omitempty"`
	UpdateSale          *UpdateSalePayload          `json:"updateSale,omitempty"`
	UpdateStock         *UpdateStockPayload         `json:"updateStock,omitempty"`
	CreateFinancialNote *CreateFinancialNotePayload `json:"createFinancialNote,omitempty"`
	CreateGeneralNote   *CreateGeneralNotePayload   `json:"createGeneralNote,omitempty"`
	DeleteEntity        *DeleteEntityPayload        `json:"deleteEntity,omitempty"`
}

// TableName returns the table name for Mutation.
func (Mutation) TableName() string {
	return "mutation_queue"
}

// Validate checks that exactly one payload is set and that it matches Kind.
func (m *Mutation) Validate() error {
	set := 0
	var got Kind
	if m.CreateSale != nil {
		set++
		got = KindCreateSale
	}
	if m.UpdateSale != nil {
		set++
		got = KindUpdateSale
	}
	if m.UpdateStock != nil {
		set++
		got = KindUpdateStock
	}
	if m.CreateFinancialNote != nil {
		set++
		got = KindCreateFinancialNote
	}
	if m.CreateGeneralNote != nil {
		set++
		got = KindCreateGeneralNote
	}
	if m.DeleteEntity != nil {
		set++
		got = KindDeleteEntity
	}
	if set != 1 {
		return fmt.Errorf("mutation %s: expected exactly one payload, got %d", m.ID, set)
	}
	if got != m.Kind {
		return fmt.Errorf("mutation %s: payload %s does not match kind %s", m.ID, got, m.Kind)
	}
	return nil
}

// EncodePayload serializes the active payload for the payload column.
func (m *Mutation) EncodePayload() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	switch m.Kind {
	case KindCreateSale:
		return json.Marshal(m.CreateSale)
	case KindUpdateSale:
		return json.Marshal(m.UpdateSale)
	case KindUpdateStock:
		return json.Marshal(m.UpdateStock)
	case KindCreateFinancialNote:
		return json.Marshal(m.CreateFinancialNote)
	case KindCreateGeneralNote:
		return json.Marshal(m.CreateGeneralNote)
	case KindDeleteEntity:
		return json.Marshal(m.DeleteEntity)
	}
	return nil, fmt.Errorf("mutation %s: unknown kind %s", m.ID, m.Kind)
}

// DecodePayload fills the payload pointer for Kind from a payload column
// value read back from storage.
func (m *Mutation) DecodePayload(data []byte) error {
	switch m.Kind {
	case KindCreateSale:
		m.CreateSale = &CreateSalePayload{}
		return json.Unmarshal(data, m.CreateSale)
	case KindUpdateSale:
		m.UpdateSale = &UpdateSalePayload{}
		return json.Unmarshal(data, m.UpdateSale)
	case KindUpdateStock:
		m.UpdateStock = &UpdateStockPayload{}
		return json.Unmarshal(data, m.UpdateStock)
	case KindCreateFinancialNote:
		m.CreateFinancialNote = &CreateFinancialNotePayload{}
		return json.Unmarshal(data, m.CreateFinancialNote)
	case KindCreateGeneralNote:
		m.CreateGeneralNote = &CreateGeneralNotePayload{}
		return json.Unmarshal(data, m.CreateGeneralNote)
	case KindDeleteEntity:
		m.DeleteEntity = &DeleteEntityPayload{}
		return json.Unmarshal(data, m.DeleteEntity)
	}
	return fmt.Errorf("mutation %s: unknown kind %s", m.ID, m.Kind)
}

// IsCreate reports whether the mutation creates a remote entity and thus
// needs placeholder-id reconciliation after replay.
func (m *Mutation) IsCreate() bool {
	switch m.Kind {
	case KindCreateSale, KindCreateFinancialNote, KindCreateGeneralNote:
		return true
	}
	return false
}
