package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the order side of the shared database.
type Store interface {
	PlaceOrderTx(ctx context.Context, req PlaceRequest) (Order, error)
	CancelOrderTx(ctx context.Context, id int) (Order, int, error)
	GetOrder(ctx context.Context, id int) (Order, error)
	UserPurchases(ctx context.Context, userID int) (map[int]int, error)
	Clear(ctx context.Context) error
}

type Repo struct{ DB *pgxpool.Pool }

// PlaceOrderTx takes the units out of stock and records the order in one
// transaction. The decrement only applies while enough stock remains, so
// concurrent orders can never push the product below zero.
func (r *Repo) PlaceOrderTx(ctx context.Context, req PlaceRequest) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, fmt.Errorf("place order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE products SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2`, req.ProductID, req.Quantity)
	if err != nil {
		return Order{}, fmt.Errorf("place order: decrement stock: %w", err)
	}
	if ct.RowsAffected() != 1 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, req.ProductID).Scan(&exists); err != nil {
			return Order{}, fmt.Errorf("place order: %w", err)
		}
		if !exists {
			return Order{}, ErrProductNotFound
		}
		return Order{}, ErrInsufficientStock
	}

	o := Order{ProductID: req.ProductID, UserID: req.UserID, Quantity: req.Quantity, Status: StatusSuccess}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(product_id, user_id, quantity, status)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		o.ProductID, o.UserID, o.Quantity, string(o.Status)).Scan(&o.ID)
	if err != nil {
		return Order{}, fmt.Errorf("place order: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("place order: commit: %w", err)
	}
	return o, nil
}

// CancelOrderTx flips a Success order to Cancelled and returns its units to
// stock. It reports the cancelled order and the restored stock level.
func (r *Repo) CancelOrderTx(ctx context.Context, id int) (Order, int, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, 0, fmt.Errorf("cancel order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := Order{ID: id, Status: StatusCancelled}
	err = tx.QueryRow(ctx, `
		UPDATE orders SET status = 'Cancelled'
		WHERE id = $1 AND status = 'Success'
		RETURNING product_id, user_id, quantity`, id).Scan(&o.ProductID, &o.UserID, &o.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		var s string
		err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&s)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, 0, ErrOrderNotFound
		}
		if err != nil {
			return Order{}, 0, fmt.Errorf("cancel order: %w", err)
		}
		return Order{}, 0, ErrAlreadyCancelled
	}
	if err != nil {
		return Order{}, 0, fmt.Errorf("cancel order: %w", err)
	}

	var stock int
	err = tx.QueryRow(ctx, `
		UPDATE products SET quantity = quantity + $2
		WHERE id = $1 RETURNING quantity`, o.ProductID, o.Quantity).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, 0, ErrProductNotFound
	}
	if err != nil {
		return Order{}, 0, fmt.Errorf("cancel order: restore stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, 0, fmt.Errorf("cancel order: commit: %w", err)
	}
	return o, stock, nil
}

func (r *Repo) GetOrder(ctx context.Context, id int) (Order, error) {
	var (
		o Order
		s string
	)
	err := r.DB.QueryRow(ctx, `SELECT id, product_id, user_id, quantity, status FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.ProductID, &o.UserID, &o.Quantity, &s)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Status = Status(s)
	return o, nil
}

// UserPurchases sums the quantity of the user's live orders per product.
func (r *Repo) UserPurchases(ctx context.Context, userID int) (map[int]int, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, SUM(quantity)::int FROM orders
		WHERE user_id = $1 AND status = 'Success'
		GROUP BY product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("user purchases: %w", err)
	}
	defer rows.Close()

	out := map[int]int{}
	for rows.Next() {
		var pid, qty int
		if err := rows.Scan(&pid, &qty); err != nil {
			return nil, err
		}
		out[pid] = qty
	}
	return out, rows.Err()
}

func (r *Repo) Clear(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, `TRUNCATE orders RESTART IDENTITY`); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	return nil
}
