// Package models provides data model definitions for the geprekpos backend.
package models

// Sale represents one recorded sale transaction.
//
// LocalID is always set and generated on this device. ObjectID is empty
// until the remote store has confirmed the sale; after reconciliation it
// holds the server-assigned id.
type Sale struct {
	LocalID     string `db:"local_id" json:"localId"`
	ObjectID    string `db:"object_id" json:"objectId,omitempty"`
	ProductID   string `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`
	Price       int64  `db:"price" json:"price"`
	Quantity    int64  `db:"quantity" json:"quantity"`
	Total       int64  `db:"total" json:"total"`
	Date        int64  `db:"date" json:"date"`
}

// TableName returns the table name for Sale.
func (Sale) TableName() string {
	return "sales"
}

// ID returns the server id when confirmed, the local placeholder otherwise.
func (s *Sale) ID() string {
	if s.ObjectID != "" {
		return s.ObjectID
	}
	return s.LocalID
}

// Confirmed reports whether the remote store has acknowledged this sale.
func (s *Sale) Confirmed() bool {
	return s.ObjectID != ""
}

// RecomputeTotal re-derives the total from price and quantity. Called on
// every mutation application; the stored total is never trusted.
func (s *Sale) RecomputeTotal() {
	s.Total = s.Price * s.Quantity
}

// SaleFields carries a partial update to a sale. Nil fields are untouched.
type SaleFields struct {
	ProductID   *string `json:"productId,omitempty"`
	ProductName *string `json:"productName,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Quantity    *int64  `json:"quantity,omitempty"`
}

// Apply merges the set fields into the sale and re-derives the total.
func (s *Sale) Apply(f SaleFields) {
	if f.ProductID != nil {
		s.ProductID = *f.ProductID
	}
	if f.ProductName != nil {
		s.ProductName = *f.ProductName
	}
	if f.Price != nil {
		s.Price = *f.Price
	}
	if f.Quantity != nil {
		s.Quantity = *f.Quantity
	}
	s.RecomputeTotal()
}
