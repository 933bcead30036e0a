package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store interface {
	Get(ctx context.Context, id int) (Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, id int, p Patch) (Product, error)
	Delete(ctx context.Context, p Product) error
	Clear(ctx context.Context) error
}

// Prices travel as text so NUMERIC keeps its exact value.
type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, name, description, price::text, quantity`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Quantity); err != nil {
		return Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("price %q: %w", price, err)
	}
	p.Price = d
	return p, nil
}

func (r *Repo) Get(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repo) Create(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, price, quantity)
		VALUES ($1, $2, $3, $4::text::numeric, $5)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Quantity)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, id int, patch Patch) (Product, error) {
	var price *string
	if patch.Price != nil {
		s := patch.Price.String()
		price = &s
	}
	p, err := scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price       = COALESCE($4::text::numeric, price),
			quantity    = COALESCE($5, quantity)
		WHERE id = $1
		RETURNING `+productCols, id, patch.Name, patch.Description, price, patch.Quantity))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// Delete removes the product only if name, price and quantity all match.
func (r *Repo) Delete(ctx context.Context, p Product) error {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM products
		WHERE id = $1 AND name = $2 AND price = $3::text::numeric AND quantity = $4`,
		p.ID, p.Name, p.Price.String(), p.Quantity)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, `TRUNCATE products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	return nil
}
