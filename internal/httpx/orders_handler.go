package httpx

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ariefcatur/go-microshop/internal/control"
	"github.com/ariefcatur/go-microshop/internal/orders"
	"github.com/ariefcatur/go-microshop/internal/svcclient"
	"github.com/go-chi/chi/v5"
)

// Forwarder relays requests the order service does not own to the router.
type Forwarder interface {
	Get(ctx context.Context, path string) (svcclient.Response, error)
	Post(ctx context.Context, path string, body []byte) (svcclient.Response, error)
}

type OrdersHandler struct {
	Orders *orders.Coordinator
	Plane  *control.Plane
	Router Forwarder
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/order", h.placeOrder)
	r.Get("/order/{id}", h.getOrder)
	r.Delete("/order/{id}", h.cancelOrder)
	r.Get("/user/purchased/{id}", h.purchased)
	r.HandleFunc("/clear", h.command(control.CommandClear))
	r.HandleFunc("/restart", h.command(control.CommandRestart))
	r.HandleFunc("/shutdown", h.command(control.CommandShutdown))
	r.NotFound(h.forward)
	r.MethodNotAllowed(h.forward)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	body, err := ReadBody(r)
	if err != nil {
		WriteStatus(w, http.StatusBadRequest, "Invalid Request")
		return
	}
	req, err := orders.ParsePlaceRequest(body)
	if err != nil {
		h.fail(w, err)
		return
	}
	o, err := h.Orders.Place(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orders.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteStatus(w, http.StatusBadRequest, "Invalid Order ID format")
		return
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orders.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteStatus(w, http.StatusBadRequest, "Invalid Order ID")
		return
	}
	res, err := h.Orders.Cancel(r.Context(), id)
	if errors.Is(err, orders.ErrProductNotFound) {
		WriteStatus(w, http.StatusNotFound, "Product associated with order no longer exists")
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) purchased(w http.ResponseWriter, r *http.Request) {
	id, err := orders.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		WriteStatus(w, http.StatusBadRequest, "Invalid ID format")
		return
	}
	items, err := h.Orders.Purchased(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (h *OrdersHandler) command(cmd control.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := h.Plane.Do(r.Context(), cmd)
		if err != nil {
			log.Printf("%s: %v", cmd, err)
			WriteStatus(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		WriteStatus(w, http.StatusOK, msg)
	}
}

// forward relays the request through the router. Only the path is carried;
// non-POST methods go out as GET.
func (h *OrdersHandler) forward(w http.ResponseWriter, r *http.Request) {
	var (
		resp svcclient.Response
		err  error
	)
	if r.Method == http.MethodPost {
		body, rerr := ReadBody(r)
		if rerr != nil {
			WriteStatus(w, http.StatusBadRequest, "Invalid Request")
			return
		}
		resp, err = h.Router.Post(r.Context(), r.URL.Path, []byte(body))
	} else {
		resp, err = h.Router.Get(r.Context(), r.URL.Path)
	}
	if err != nil {
		log.Printf("forward %s %s: %v", r.Method, r.URL.Path, err)
		WriteStatus(w, http.StatusBadRequest, "Invalid Request")
		return
	}
	WriteRaw(w, resp.Status, resp.Body)
}

func (h *OrdersHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrInsufficientStock):
		WriteStatus(w, http.StatusBadRequest, "Exceeded quantity limit")
	case errors.Is(err, orders.ErrAlreadyCancelled):
		WriteStatus(w, http.StatusBadRequest, "Order already cancelled")
	case errors.Is(err, orders.ErrDependency):
		log.Printf("orders: %v", err)
		WriteStatus(w, http.StatusBadRequest, "Invalid Request")
	case errors.Is(err, orders.ErrInvalid):
		WriteStatus(w, http.StatusBadRequest, "Invalid Request")
	case errors.Is(err, orders.ErrOrderNotFound):
		WriteStatus(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, orders.ErrUserNotFound):
		WriteStatus(w, http.StatusNotFound, "User Not Found")
	case errors.Is(err, orders.ErrProductNotFound):
		WriteStatus(w, http.StatusNotFound, "Product Not Found")
	default:
		log.Printf("orders: %v", err)
		WriteStatus(w, http.StatusInternalServerError, "Database Transaction Failed")
	}
}
