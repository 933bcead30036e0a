package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-microshop/internal/jsonfield"
	"github.com/ariefcatur/go-microshop/internal/svcclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/ariefcatur/go-microshop/internal/orders"

// Catalog answers user and product lookups, normally through the router.
type Catalog interface {
	Get(ctx context.Context, path string) (svcclient.Response, error)
}

// Cache is an optional read-through cache of orders. Misses and failures are
// indistinguishable to the caller. Writes go through Set; a read only fills
// an empty slot with Add, so it can never replace what a later write stored.
type Cache interface {
	Get(ctx context.Context, id int) (Order, bool)
	Set(ctx context.Context, o Order)
	Add(ctx context.Context, o Order)
	Flush(ctx context.Context) error
}

type noCache struct{}

func (noCache) Get(context.Context, int) (Order, bool) { return Order{}, false }
func (noCache) Set(context.Context, Order)             {}
func (noCache) Add(context.Context, Order)             {}
func (noCache) Flush(context.Context) error            { return nil }

// Coordinator runs the order workflows against the store and the catalog.
type Coordinator struct {
	store   Store
	catalog Catalog
	cache   Cache

	tracer    trace.Tracer
	placed    metric.Int64Counter
	rejected  metric.Int64Counter
	cancelled metric.Int64Counter
}

func NewCoordinator(store Store, catalog Catalog, cache Cache) *Coordinator {
	if cache == nil {
		cache = noCache{}
	}
	meter := otel.Meter(instrumentation)
	return &Coordinator{
		store:     store,
		catalog:   catalog,
		cache:     cache,
		tracer:    otel.Tracer(instrumentation),
		placed:    counter(meter, "orders.placed", "Orders committed"),
		rejected:  counter(meter, "orders.rejected", "Place attempts refused"),
		cancelled: counter(meter, "orders.cancelled", "Orders cancelled with stock restored"),
	}
}

func counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		log.Printf("metrics: %s: %v", name, err)
		return noop.Int64Counter{}
	}
	return c
}

// Place checks the user and the product, then commits the order and the
// stock decrement together.
func (c *Coordinator) Place(ctx context.Context, req PlaceRequest) (Order, error) {
	ctx, span := c.tracer.Start(ctx, "orders.Place", trace.WithAttributes(
		attribute.Int("order.user_id", req.UserID),
		attribute.Int("order.product_id", req.ProductID),
		attribute.Int("order.quantity", req.Quantity),
	))
	defer span.End()

	o, err := c.place(ctx, req)
	if err != nil {
		c.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason(err))))
		fail(span, err)
		return Order{}, err
	}
	c.placed.Add(ctx, 1)
	span.SetAttributes(attribute.Int("order.id", o.ID))
	return o, nil
}

func (c *Coordinator) place(ctx context.Context, req PlaceRequest) (Order, error) {
	if req.Quantity <= 0 {
		return Order{}, ErrInvalid
	}
	if _, err := c.lookup(ctx, "/user/"+strconv.Itoa(req.UserID), ErrUserNotFound); err != nil {
		return Order{}, err
	}
	product, err := c.lookup(ctx, "/product/"+strconv.Itoa(req.ProductID), ErrProductNotFound)
	if err != nil {
		return Order{}, err
	}
	stock, err := jsonfield.Int(product, "quantity")
	if err != nil {
		return Order{}, fmt.Errorf("%w: product %d stock: %v", ErrDependency, req.ProductID, err)
	}
	if req.Quantity > stock {
		return Order{}, ErrInsufficientStock
	}

	o, err := c.store.PlaceOrderTx(ctx, req)
	if err != nil {
		return Order{}, err
	}
	c.cache.Set(ctx, o)
	return o, nil
}

func (c *Coordinator) Get(ctx context.Context, id int) (Order, error) {
	if o, ok := c.cache.Get(ctx, id); ok {
		return o, nil
	}
	o, err := c.store.GetOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	c.cache.Add(ctx, o)
	return o, nil
}

// Cancel returns a Success order's units to stock. An order whose product is
// gone cannot be cancelled.
func (c *Coordinator) Cancel(ctx context.Context, id int) (Cancellation, error) {
	ctx, span := c.tracer.Start(ctx, "orders.Cancel", trace.WithAttributes(attribute.Int("order.id", id)))
	defer span.End()

	res, err := c.cancel(ctx, id)
	if err != nil {
		fail(span, err)
		return Cancellation{}, err
	}
	c.cancelled.Add(ctx, 1)
	return res, nil
}

func (c *Coordinator) cancel(ctx context.Context, id int) (Cancellation, error) {
	o, err := c.store.GetOrder(ctx, id)
	if err != nil {
		return Cancellation{}, err
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return Cancellation{}, ErrAlreadyCancelled
	}

	resp, err := c.catalog.Get(ctx, "/product/"+strconv.Itoa(o.ProductID))
	if err != nil {
		return Cancellation{}, fmt.Errorf("%w: %v", ErrDependency, err)
	}
	if resp.Status != http.StatusOK {
		return Cancellation{}, ErrProductNotFound
	}

	o, stock, err := c.store.CancelOrderTx(ctx, id)
	if err != nil {
		return Cancellation{}, err
	}
	c.cache.Set(ctx, o)
	return Cancellation{
		Status:    "Order cancelled and stock restored",
		ID:        o.ID,
		ProductID: o.ProductID,
		Quantity:  stock,
	}, nil
}

// Purchased totals the user's live orders per product.
func (c *Coordinator) Purchased(ctx context.Context, userID int) (map[int]int, error) {
	if _, err := c.lookup(ctx, "/user/"+strconv.Itoa(userID), ErrUserNotFound); err != nil {
		return nil, err
	}
	return c.store.UserPurchases(ctx, userID)
}

// Clear wipes every order and the cache in front of them. Ids restart after a
// clear, so a cache that cannot be flushed fails the whole clear.
func (c *Coordinator) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	if err := c.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flush order cache: %w", err)
	}
	return nil
}

// lookup fetches path through the catalog. A 404 maps to notFound; anything
// else that is not a 200 counts as the dependency being unavailable.
func (c *Coordinator) lookup(ctx context.Context, path string, notFound error) (string, error) {
	resp, err := c.catalog.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", ErrDependency, path, err)
	}
	switch resp.Status {
	case http.StatusOK:
		return string(resp.Body), nil
	case http.StatusNotFound:
		return "", notFound
	default:
		return "", fmt.Errorf("%w: GET %s: status %d", ErrDependency, path, resp.Status)
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// reason buckets an error for metric attributes.
func reason(err error) string {
	for _, e := range []error{
		ErrInvalid, ErrDependency, ErrUserNotFound, ErrProductNotFound,
		ErrInsufficientStock, ErrOrderNotFound, ErrAlreadyCancelled,
	} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "internal"
}
