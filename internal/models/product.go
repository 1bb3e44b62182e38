package models

// Product is a sellable menu item from the remote catalog.
type Product struct {
	ObjectID   string `db:"object_id" json:"id"`
	Code       string `db:"code" json:"code"`
	Name       string `db:"name" json:"name"`
	Price      int64  `db:"price" json:"price"`
	UseChicken bool   `db:"use_chicken" json:"useChicken"`
}

// TableName returns the table name for Product.
func (Product) TableName() string {
	return "products"
}
