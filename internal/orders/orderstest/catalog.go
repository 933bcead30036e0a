package orderstest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/ariefcatur/go-microshop/internal/svcclient"
)

// Catalog answers GET /user/{id} and GET /product/{id} the way the stores do,
// reading product stock from the backing Store.
type Catalog struct {
	Store *Store

	mu    sync.Mutex
	users map[int]bool
	down  bool
	calls []string
}

func NewCatalog(store *Store) *Catalog {
	return &Catalog{Store: store, users: map[int]bool{}}
}

func (c *Catalog) AddUser(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[id] = true
}

// SetDown makes every lookup fail as if the router were unreachable.
func (c *Catalog) SetDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

func (c *Catalog) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *Catalog) Get(_ context.Context, path string) (svcclient.Response, error) {
	c.mu.Lock()
	down := c.down
	c.mu.Unlock()
	if down {
		return svcclient.Response{}, errors.New("connection refused")
	}
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return svcclient.Response{Status: rec.Code, Body: rec.Body.Bytes()}, nil
}

func (c *Catalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.calls = append(c.calls, r.URL.Path)
	c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	kind, rawID, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if kind != "user" && kind != "product" {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
		return
	}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{}`))
		return
	}

	switch kind {
	case "user":
		c.mu.Lock()
		known := c.users[id]
		c.mu.Unlock()
		if !known {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		fmt.Fprintf(w, `{"id": %d, "username": "user%d", "email": "u%d@example.com", "password": "AB"}`, id, id, id)
	case "product":
		stock, known := c.Store.Stock(id)
		if !known {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		fmt.Fprintf(w, `{"id": %d, "name": "item%d", "description": "d", "price": 1.50, "quantity": %d}`, id, id, stock)
	}
}
