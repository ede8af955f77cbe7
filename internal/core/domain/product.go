package domain

import (
	"fmt"
	"strings"
)

// Product is an item sold by the machine. The zero value ProductNone means
// "no selection".
type Product int

const (
	ProductNone Product = iota
	Coke
	Sprite
	Water
)

type productInfo struct {
	id    string
	name  string
	price Cents
}

var products = [...]productInfo{
	ProductNone: {id: "NONE"},
	Coke:        {id: "COKE", name: "Coke", price: 150},
	Sprite:      {id: "SPRITE", name: "Sprite", price: 140},
	Water:       {id: "WATER", name: "Water", price: 90},
}

// Products returns every valid product.
func Products() []Product {
	return []Product{Coke, Sprite, Water}
}

func (p Product) Valid() bool {
	return p > ProductNone && int(p) < len(products)
}

// Name is the display name shown on the machine.
func (p Product) Name() string {
	if !p.Valid() {
		return ""
	}
	return products[p].name
}

func (p Product) Price() Cents {
	if !p.Valid() {
		return 0
	}
	return products[p].price
}

func (p Product) String() string {
	if !p.Valid() {
		return products[ProductNone].id
	}
	return products[p].id
}

func (p Product) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts what MarshalText emits, including "NONE".
func (p *Product) UnmarshalText(text []byte) error {
	if string(text) == products[ProductNone].id {
		*p = ProductNone
		return nil
	}
	parsed, err := ParseProduct(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseProduct resolves a product by identifier ("WATER") or display name ("Water").
func ParseProduct(name string) (Product, error) {
	name = strings.TrimSpace(name)
	for _, p := range Products() {
		if strings.EqualFold(products[p].id, name) || strings.EqualFold(products[p].name, name) {
			return p, nil
		}
	}
	return ProductNone, fmt.Errorf("%w: %q", ErrInvalidProduct, name)
}
