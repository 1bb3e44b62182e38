package models

// Stock is the singleton inventory aggregate: whole chickens in the raw
// fridge, queued for frying, and cooked ready to sell.
type Stock struct {
	RawChicken    int64 `db:"raw_chicken" json:"rawChicken"`
	FriedPlanning int64 `db:"fried_planning" json:"friedPlanning"`
	CookedChicken int64 `db:"cooked_chicken" json:"cookedChicken"`
}

// TableName returns the table name for Stock.
func (Stock) TableName() string {
	return "stock"
}

// StockFields carries a partial stock update with absolute values. Nil
// fields are untouched. Counter transfers (raw→frying, frying→cooked) must
// set both sides of the pair in the same update so inventory never vanishes
// half-moved.
type StockFields struct {
	RawChicken    *int64 `json:"rawChicken,omitempty"`
	FriedPlanning *int64 `json:"friedPlanning,omitempty"`
	CookedChicken *int64 `json:"cookedChicken,omitempty"`
}

// Apply merges the set fields into the stock.
func (s *Stock) Apply(f StockFields) {
	if f.RawChicken != nil {
		s.RawChicken = *f.RawChicken
	}
	if f.FriedPlanning != nil {
		s.FriedPlanning = *f.FriedPlanning
	}
	if f.CookedChicken != nil {
		s.CookedChicken = *f.CookedChicken
	}
}

// Int64Ptr is a convenience for building partial stock updates.
func Int64Ptr(v int64) *int64 {
	return &v
}
