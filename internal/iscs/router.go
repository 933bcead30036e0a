// Package iscs is the inter-service router: it maps a request path onto the
// backend that owns it and relays the exchange.
package iscs

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/ariefcatur/go-microshop/internal/httpx"
	"github.com/ariefcatur/go-microshop/internal/svcclient"
)

// Backend issues the two request shapes the router forwards.
type Backend interface {
	Get(ctx context.Context, path string) (svcclient.Response, error)
	Post(ctx context.Context, path string, body []byte) (svcclient.Response, error)
}

type Route struct {
	Prefix  string
	Backend Backend
}

var emptyJSON = []byte(`{}`)

type Router struct {
	routes []Route
}

// NewRouter fixes the routing table. Routes are matched longest prefix first.
func NewRouter(routes ...Route) *Router {
	rs := append([]Route(nil), routes...)
	sort.SliceStable(rs, func(i, j int) bool { return len(rs[i].Prefix) > len(rs[j].Prefix) })
	return &Router{routes: rs}
}

// Resolve returns the backend owning path. A prefix only matches whole path
// segments, so /username does not belong to /user.
func (rt *Router) Resolve(path string) (Backend, bool) {
	for _, r := range rt.routes {
		if path == r.Prefix || strings.HasPrefix(path, strings.TrimSuffix(r.Prefix, "/")+"/") {
			return r.Backend, true
		}
	}
	return nil, false
}

// Route forwards one request. POST carries body through untouched; every other
// method is sent as a body-less GET. Network failures come back as 400 {}.
func (rt *Router) Route(ctx context.Context, method, path string, body []byte) (int, []byte) {
	b, ok := rt.Resolve(path)
	if !ok {
		return http.StatusNotFound, emptyJSON
	}

	var (
		resp svcclient.Response
		err  error
	)
	if method == http.MethodPost {
		resp, err = b.Post(ctx, path, body)
	} else {
		resp, err = b.Get(ctx, path)
	}
	if err != nil {
		log.Printf("iscs: %s %s: %v", method, path, err)
		return http.StatusBadRequest, emptyJSON
	}
	return resp.Status, resp.Body
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Method == http.MethodPost {
		b, err := httpx.ReadBody(r)
		if err != nil {
			httpx.WriteRaw(w, http.StatusBadRequest, emptyJSON)
			return
		}
		body = []byte(b)
	}
	status, out := rt.Route(r.Context(), r.Method, r.URL.Path, body)
	httpx.WriteRaw(w, status, out)
}
