// Package products is the product store. The stock column is shared with
// the order service, which adjusts it inside its own transactions.
package products

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/ariefcatur/go-microshop/internal/jsonfield"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalid   = errors.New("invalid product")
	ErrNotFound  = errors.New("product not found")
	ErrDuplicate = errors.New("product already exists")
)

type Product struct {
	ID          int
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
}

// View is the wire form; price always carries two decimals.
type View struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Quantity    int         `json:"quantity"`
}

func (p Product) View() View {
	return View{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.StringFixed(2)),
		Quantity:    p.Quantity,
	}
}

type Patch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Quantity == nil
}

func (p Patch) Apply(pr Product) Product {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Price != nil {
		pr.Price = *p.Price
	}
	if p.Quantity != nil {
		pr.Quantity = *p.Quantity
	}
	return pr
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, ErrInvalid
	}
	return d, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrInvalid
	}
	return n, nil
}

// parseCore reads name, price and quantity, which create and delete both need.
func parseCore(id int, body string) (Product, error) {
	p := Product{ID: id}
	var (
		price, qty string
		ok         bool
		err        error
	)
	if p.Name, ok = jsonfield.Get(body, "name"); !ok || p.Name == "" {
		return Product{}, ErrInvalid
	}
	if price, ok = jsonfield.Get(body, "price"); !ok {
		return Product{}, ErrInvalid
	}
	if p.Price, err = parsePrice(price); err != nil {
		return Product{}, err
	}
	if qty, ok = jsonfield.Get(body, "quantity"); !ok {
		return Product{}, ErrInvalid
	}
	if p.Quantity, err = parseQuantity(qty); err != nil {
		return Product{}, err
	}
	return p, nil
}

func ParseCreate(id int, body string) (Product, error) {
	p, err := parseCore(id, body)
	if err != nil {
		return Product{}, err
	}
	if p.Description, _ = jsonfield.Get(body, "description"); p.Description == "" {
		return Product{}, ErrInvalid
	}
	return p, nil
}

// ParseDelete reads the fields a delete must match. Description is not
// compared.
func ParseDelete(id int, body string) (Product, error) {
	return parseCore(id, body)
}

// ParseUpdate reads the fields present in body. At least one is required.
func ParseUpdate(body string) (Patch, error) {
	var p Patch
	if v, ok := jsonfield.Get(body, "name"); ok {
		if v == "" {
			return Patch{}, ErrInvalid
		}
		p.Name = &v
	}
	if v, ok := jsonfield.Get(body, "description"); ok {
		if v == "" {
			return Patch{}, ErrInvalid
		}
		p.Description = &v
	}
	if v, ok := jsonfield.Get(body, "price"); ok {
		d, err := parsePrice(v)
		if err != nil {
			return Patch{}, err
		}
		p.Price = &d
	}
	if v, ok := jsonfield.Get(body, "quantity"); ok {
		n, err := parseQuantity(v)
		if err != nil {
			return Patch{}, err
		}
		p.Quantity = &n
	}
	if p.Empty() {
		return Patch{}, ErrInvalid
	}
	return p, nil
}

// Matches reports whether other names the same product for deletion.
func (p Product) Matches(other Product) bool {
	return p.Name == other.Name && p.Price.Equal(other.Price) && p.Quantity == other.Quantity
}
