package orders_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-microshop/internal/orders"
	"github.com/ariefcatur/go-microshop/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openRepo connects to TEST_POSTGRES_DSN and resets the shared tables.
func openRepo(t *testing.T) (*orders.Repo, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, dsn, 20)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE orders, products RESTART IDENTITY`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO products(id, name, description, price, quantity) VALUES (1, 'pen', 'blue', 1.50, 5)`)
	require.NoError(t, err)
	return &orders.Repo{DB: pool}, pool
}

func stockOf(t *testing.T, pool *pgxpool.Pool, id int) int {
	t.Helper()
	var q int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT quantity FROM products WHERE id=$1`, id).Scan(&q))
	return q
}

func TestRepoPlaceAndCancel(t *testing.T) {
	repo, pool := openRepo(t)
	ctx := context.Background()

	o, err := repo.PlaceOrderTx(ctx, orders.PlaceRequest{UserID: 3, ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, o.ID)
	assert.Equal(t, 3, stockOf(t, pool, 1))

	got, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	purchases, err := repo.UserPurchases(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 2}, purchases)

	cancelled, stock, err := repo.CancelOrderTx(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, stock)

	_, _, err = repo.CancelOrderTx(ctx, o.ID)
	assert.ErrorIs(t, err, orders.ErrAlreadyCancelled)
	_, _, err = repo.CancelOrderTx(ctx, 999)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
	assert.Equal(t, 5, stockOf(t, pool, 1))
}

func TestRepoPlaceRejections(t *testing.T) {
	repo, pool := openRepo(t)
	ctx := context.Background()

	_, err := repo.PlaceOrderTx(ctx, orders.PlaceRequest{UserID: 3, ProductID: 1, Quantity: 6})
	assert.ErrorIs(t, err, orders.ErrInsufficientStock)
	_, err = repo.PlaceOrderTx(ctx, orders.PlaceRequest{UserID: 3, ProductID: 2, Quantity: 1})
	assert.ErrorIs(t, err, orders.ErrProductNotFound)
	assert.Equal(t, 5, stockOf(t, pool, 1))

	_, err = repo.GetOrder(ctx, 1)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestRepoConcurrentPlaceNeverOversells(t *testing.T) {
	repo, pool := openRepo(t)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.PlaceOrderTx(context.Background(), orders.PlaceRequest{UserID: 1, ProductID: 1, Quantity: 1}); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 0, stockOf(t, pool, 1))
}

func TestRepoClear(t *testing.T) {
	repo, _ := openRepo(t)
	ctx := context.Background()

	_, err := repo.PlaceOrderTx(ctx, orders.PlaceRequest{UserID: 3, ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, repo.Clear(ctx))
	_, err = repo.GetOrder(ctx, 1)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}
