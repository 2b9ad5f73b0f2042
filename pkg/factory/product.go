package factory

import (
	"slices"

	"github.com/matzehuels/flowplan/pkg/errors"
)

// AnyProduct is the wildcard placeholder accepted on either end of a
// connection. A slot holding it matches every product.
const AnyProduct = "any"

// Category classifies products.
type Category string

const (
	CategoryItem  Category = "item"
	CategoryFluid Category = "fluid"
)

// Product is immutable reference data for one good.
type Product struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Category Category `json:"category" yaml:"category"`
}

// Catalog is the product registry. It is built once with [NewCatalog] and
// passed by reference; it is never mutated afterwards.
type Catalog struct {
	products map[string]Product
}

// NewCatalog indexes products by ID. Products with an empty category default
// to [CategoryItem]. Duplicate IDs and unknown categories are rejected.
func NewCatalog(products ...Product) (*Catalog, error) {
	c := &Catalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		if err := errors.ValidateID(errors.ErrCodeInvalidInput, "product", p.ID); err != nil {
			return nil, err
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate product %q", p.ID)
		}
		switch p.Category {
		case "":
			p.Category = CategoryItem
		case CategoryItem, CategoryFluid:
		default:
			return nil, errors.New(errors.ErrCodeInvalidInput, "product %q: unknown category %q", p.ID, p.Category)
		}
		c.products[p.ID] = p
	}
	return c, nil
}

// Product returns the product with the given ID.
func (c *Catalog) Product(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	p, ok := c.products[id]
	return p, ok
}

// Category returns the category of a product. Unknown products, and every
// product of a nil catalog, are items.
func (c *Catalog) Category(id string) Category {
	if p, ok := c.Product(id); ok {
		return p.Category
	}
	return CategoryItem
}

// Products returns all products sorted by ID.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Product) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// ProductsMatch reports whether two slot products may be connected.
func ProductsMatch(a, b string) bool {
	return a == b || a == AnyProduct || b == AnyProduct
}
