package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNegativePrice = errors.New("price must be non-negative")

type Customer struct {
	ID         int64
	Name       string
	Email      string
	Country    string
	SignupDate time.Time
	CreatedAt  time.Time
}

type Product struct {
	ID        int64
	Name      string
	Category  string
	Price     decimal.Decimal
	CreatedAt time.Time
}

func (p *Product) Validate() error {
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Categories is the fixed product category enumeration.
var Categories = [20]string{
	"Dresses", "Tops & Blouses", "Sweaters & Knitwear", "Jackets & Coats",
	"Pants & Trousers", "Skirts", "Jeans & Denim", "Activewear & Athleisure",
	"Lingerie & Intimates", "Sleepwear & Loungewear", "Swimwear & Beachwear",
	"Handbags & Purses", "Jewelry & Watches", "Scarves & Wraps",
	"Belts & Accessories", "Shoes & Footwear", "Sunglasses & Eyewear",
	"Hats & Hair Accessories", "Tech Accessories", "Gift Cards & Sets",
}
