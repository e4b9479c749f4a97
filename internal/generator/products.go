package generator

import (
	"strings"

	domain "github.com/aq2208/gorder-seed/internal/entity"
	"github.com/shopspring/decimal"
)

var (
	adjectives = []string{
		"Elegant", "Chic", "Stylish", "Trendy", "Classic", "Modern", "Vintage",
		"Sophisticated", "Casual", "Formal", "Bohemian", "Minimalist", "Luxe",
		"Cozy", "Sleek", "Feminine", "Edgy", "Romantic", "Bold", "Timeless",
	}
	styles = []string{
		"Wrap", "A-Line", "Bodycon", "Maxi", "Mini", "Midi", "High-Waisted",
		"Off-Shoulder", "Cropped", "Oversized", "Fitted", "Flowy", "Structured",
		"Layered", "Pleated", "Ruched", "Embellished", "Cut-Out", "Asymmetric",
	}
	materials = []string{
		"Cotton", "Silk", "Denim", "Chiffon", "Velvet", "Lace", "Satin",
		"Cashmere", "Wool", "Leather", "Suede", "Jersey", "Tweed", "Linen",
	}
	jewelryTypes = []string{"Necklace", "Bracelet", "Earrings", "Ring", "Pendant"}
	shoeTypes    = []string{"Heels", "Flats", "Boots", "Sandals", "Sneakers", "Pumps"}
	collections  = []string{"Spring", "Summer", "Fall", "Winter", "Holiday", "Classic", "Premium", "Signature", "Limited Edition"}
)

// priceBand covers draws below upTo (cumulative probability).
type priceBand struct {
	upTo   float64
	lo, hi float64
}

var (
	jewelryBands  = []priceBand{{0.40, 19.99, 99.99}, {0.80, 100, 399.99}, {1, 400, 1999.99}}
	handbagBands  = []priceBand{{0.30, 39.99, 149.99}, {0.70, 150, 599.99}, {1, 600, 2999.99}}
	shoeBands     = []priceBand{{0.50, 49.99, 199.99}, {0.80, 200, 499.99}, {1, 500, 1499.99}}
	clothingBands = []priceBand{{0.60, 29.99, 149.99}, {0.85, 150, 399.99}, {1, 400, 1299.99}}
)

type ProductGenerator struct {
	rnd *Rand
}

func NewProductGenerator(rnd *Rand) *ProductGenerator {
	return &ProductGenerator{rnd: rnd}
}

func (g *ProductGenerator) Generate(n int, w Window) []domain.Product {
	out := make([]domain.Product, 0, n)
	for range n {
		category := domain.Categories[g.rnd.IntRange(0, len(domain.Categories)-1)]
		out = append(out, domain.Product{
			Name:      g.name(category),
			Category:  category,
			Price:     g.price(category),
			CreatedAt: g.rnd.Timestamp(w.Start, w.End),
		})
	}
	return out
}

func (g *ProductGenerator) name(category string) string {
	adj := g.rnd.Pick(adjectives)
	var name string
	switch {
	case strings.Contains(category, "Dresses"):
		name = adj + " " + g.rnd.Pick(styles) + " " + g.rnd.Pick(materials) + " Dress"
	case strings.Contains(category, "Tops"):
		name = adj + " " + g.rnd.Pick(materials) + " Blouse"
	case strings.Contains(category, "Sweaters"):
		name = adj + " " + g.rnd.Pick(materials) + " Sweater"
	case strings.Contains(category, "Jackets"):
		name = adj + " " + g.rnd.Pick(materials) + " Jacket"
	case strings.Contains(category, "Pants"):
		name = adj + " " + g.rnd.Pick(styles) + " Trousers"
	case strings.Contains(category, "Skirts"):
		name = adj + " " + g.rnd.Pick(styles) + " Skirt"
	case strings.Contains(category, "Jeans"):
		name = adj + " " + g.rnd.Pick(styles) + " Jeans"
	case strings.Contains(category, "Handbags"):
		name = adj + " " + g.rnd.Pick(materials) + " Handbag"
	case strings.Contains(category, "Jewelry"):
		name = adj + " " + g.rnd.Pick(jewelryTypes)
	case strings.Contains(category, "Shoes"):
		name = adj + " " + g.rnd.Pick(shoeTypes)
	default:
		name = adj + " " + strings.SplitN(category, " &", 2)[0]
	}
	if g.rnd.Bool() {
		name += " - " + g.rnd.Pick(collections) + " Collection"
	}
	return name
}

func (g *ProductGenerator) price(category string) decimal.Decimal {
	bands := clothingBands
	switch {
	case strings.Contains(category, "Jewelry"):
		bands = jewelryBands
	case strings.Contains(category, "Handbags"):
		bands = handbagBands
	case strings.Contains(category, "Shoes"):
		bands = shoeBands
	}
	draw := g.rnd.Float64()
	band := bands[len(bands)-1]
	for _, b := range bands {
		if draw < b.upTo {
			band = b
			break
		}
	}
	return decimal.NewFromFloat(g.rnd.Float64Range(band.lo, band.hi)).Round(2)
}
