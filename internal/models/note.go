package models

import "github.com/shopspring/decimal"

// FinancialNote is a calculator entry: an arithmetic expression, its exact
// result, and a spending/income category.
type FinancialNote struct {
	LocalID     string          `db:"local_id" json:"id"`
	ObjectID    string          `db:"object_id" json:"objectId,omitempty"`
	Expression  string          `db:"expression" json:"expression"`
	Result      decimal.Decimal `db:"result" json:"result"`
	Category    string          `db:"category" json:"category"`
	SubCategory string          `db:"sub_category" json:"subCategory"`
	Description string          `db:"description" json:"description"`
	Timestamp   int64           `db:"timestamp" json:"timestamp"`
}

// TableName returns the table name for FinancialNote.
func (FinancialNote) TableName() string {
	return "financial_notes"
}

// ID returns the server id when confirmed, the local placeholder otherwise.
func (n *FinancialNote) ID() string {
	if n.ObjectID != "" {
		return n.ObjectID
	}
	return n.LocalID
}

// GeneralNote is a free-form note (non-financial).
type GeneralNote struct {
	LocalID   string `db:"local_id" json:"id"`
	ObjectID  string `db:"object_id" json:"objectId,omitempty"`
	Title     string `db:"title" json:"title"`
	Content   string `db:"content" json:"content"`
	Timestamp int64  `db:"timestamp" json:"timestamp"`
}

// TableName returns the table name for GeneralNote.
func (GeneralNote) TableName() string {
	return "general_notes"
}

// ID returns the server id when confirmed, the local placeholder otherwise.
func (n *GeneralNote) ID() string {
	if n.ObjectID != "" {
		return n.ObjectID
	}
	return n.LocalID
}
