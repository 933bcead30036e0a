package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-microshop/internal/control"
	"github.com/ariefcatur/go-microshop/internal/orders"
	"github.com/ariefcatur/go-microshop/internal/orders/orderstest"
	"github.com/ariefcatur/go-microshop/internal/svcclient"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler    http.Handler
	store      *orderstest.Store
	iscs       *httptest.Server
	signals    *control.Broadcaster
	terminated chan struct{}

	mu   sync.Mutex
	sent []string
	// log keeps store-side arrivals in order.
	log []string
}

func (f *fixture) record(entry string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, entry)
}

func (f *fixture) signalled() []string {
	f.signals.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.sent...)
	sort.Strings(out)
	return out
}

// newFixture wires an order service to a fake router that serves users and
// products from an in-memory catalog.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: orderstest.NewStore(), terminated: make(chan struct{})}
	f.store.SetStock(10, 5)
	cat := orderstest.NewCatalog(f.store)
	cat.AddUser(1)

	router := chi.NewRouter()
	router.Post("/{service}/internal/{command}", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/internal/clear" {
			time.Sleep(20 * time.Millisecond)
		}
		f.mu.Lock()
		f.sent = append(f.sent, r.URL.Path)
		f.mu.Unlock()
		f.record(r.URL.Path)
		WriteStatus(w, http.StatusOK, "ok")
	})
	router.Post("/user", func(w http.ResponseWriter, r *http.Request) {
		f.record("POST /user")
		b, _ := io.ReadAll(r.Body)
		WriteRaw(w, http.StatusConflict, b)
	})
	router.NotFound(cat.ServeHTTP)
	f.iscs = httptest.NewServer(router)
	t.Cleanup(f.iscs.Close)

	client := svcclient.New(f.iscs.URL, time.Second, 4)
	coord := orders.NewCoordinator(f.store, client, nil)
	f.signals = control.NewBroadcaster(client, []string{"user", "product"}, time.Second)
	t.Cleanup(f.signals.Wait)

	var once sync.Once
	plane := control.NewPlane(coord, f.signals, 10*time.Millisecond, func() {
		once.Do(func() { close(f.terminated) })
	})
	gate := control.NewGate(plane)

	r := NewRouter(4, gate.Middleware)
	(&OrdersHandler{Orders: coord, Plane: plane, Router: client}).Register(r)
	f.handler = r
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

const placeBody = `{"command": "place order", "user_id": 1, "product_id": 10, "quantity": 2}`

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/order", placeBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"product_id":10,"user_id":1,"quantity":2,"status":"Success"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/order/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"product_id":10,"user_id":1,"quantity":2,"status":"Success"}`, rec.Body.String())

	rec = f.do(http.MethodDelete, "/order/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Order cancelled and stock restored","id":1,"product_id":10,"quantity":5}`, rec.Body.String())

	rec = f.do(http.MethodDelete, "/order/1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"Order already cancelled"}`, rec.Body.String())
}

func TestPlaceOrderRejections(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/order", `{"command": "place order", "user_id": 1, "product_id": 10, "quantity": 6}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"Exceeded quantity limit"}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/order", `{"command": "place order", "user_id": 2, "product_id": 10, "quantity": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/order", `{"command": "place order", "user_id": 1, "product_id": 11, "quantity": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/order", `{"command": "place order", "user_id": 1, "quantity": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"Invalid Request"}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/order", `{"command": "place order", "user_id": 1, "product_id": 10, "quantity": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stock, _ := f.store.Stock(10)
	assert.Equal(t, 5, stock)
	assert.Zero(t, f.store.Len())
}

func TestPlaceOrderRouterDown(t *testing.T) {
	f := newFixture(t)
	f.iscs.Close()

	rec := f.do(http.MethodPost, "/order", placeBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"Invalid Request"}`, rec.Body.String())
}

func TestPlaceOrderTransactionFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailCommit = assert.AnError

	rec := f.do(http.MethodPost, "/order", placeBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	stock, _ := f.store.Stock(10)
	assert.Equal(t, 5, stock)
}

func TestGetAndCancelBadIDs(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/order/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/order/9", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, "/order/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/order/9", "").Code)
}

func TestCancelWhenProductGone(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/order", placeBody).Code)
	f.store.DeleteProduct(10)

	rec := f.do(http.MethodDelete, "/order/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"Product associated with order no longer exists"}`, rec.Body.String())
}

func TestPurchased(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/order", placeBody).Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/order",
		`{"command": "place order", "user_id": 1, "product_id": 10, "quantity": 1}`).Code)

	rec := f.do(http.MethodGet, "/user/purchased/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"10":3}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/user/purchased/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/user/purchased/x", "").Code)
}

func TestForwardsUnownedRequests(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/user/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username": "user1"`)

	rec = f.do(http.MethodGet, "/product/10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity": 5`)

	rec = f.do(http.MethodPost, "/user", `{"command": "create", "id": 1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, `{"command": "create", "id": 1}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFirstRequestClearsSystem(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodGet, "/order/1", "")
	assert.Equal(t, []string{"/product/internal/clear", "/user/internal/clear"}, f.signalled())

	rec := f.do(http.MethodGet, "/restart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Restarted"}`, rec.Body.String())
	assert.Contains(t, f.signalled(), "/user/internal/restart")
}

func TestFirstRequestWipesStoresBeforeForwarding(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodPost, "/user", `{"command": "create", "id": 1}`)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.log, 3)
	assert.Equal(t, "POST /user", f.log[2])
	assert.ElementsMatch(t, []string{"/user/internal/clear", "/product/internal/clear"}, f.log[:2])
}

func TestFirstRequestRestartKeepsOrders(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.PlaceOrderTx(context.Background(), orders.PlaceRequest{UserID: 1, ProductID: 10, Quantity: 1})
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/restart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/order/1", "").Code)
	assert.Equal(t, []string{"/product/internal/restart", "/user/internal/restart"}, f.signalled())
}

func TestClearEndpoint(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/clear", "").Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/order", placeBody).Code)

	rec := f.do(http.MethodGet, "/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Database cleared"}`, rec.Body.String())
	assert.Zero(t, f.store.Len())
}

func TestShutdownReplies(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/shutdown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Shutting down"}`, rec.Body.String())

	select {
	case <-f.terminated:
	case <-time.After(2 * time.Second):
		t.Fatal("service did not terminate")
	}
	assert.Contains(t, f.signalled(), "/user/internal/shutdown")
}

func TestInternalHandler(t *testing.T) {
	var cleared bool
	plane := control.NewPlane(wiperFunc(func() { cleared = true }), nil, time.Hour, func() {})
	r := chi.NewRouter()
	r.Post("/user/internal/{command}", InternalHandler(plane))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/user/internal/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cleared)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/user/internal/explode", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type wiperFunc func()

func (f wiperFunc) Clear(context.Context) error {
	f()
	return nil
}
