package orders

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-microshop/internal/jsonfield"
)

type Order struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	UserID    int    `json:"user_id"`
	Quantity  int    `json:"quantity"`
	Status    Status `json:"status"`
}

// PlaceRequest is the decoded body of POST /order.
type PlaceRequest struct {
	UserID    int
	ProductID int
	Quantity  int
}

// Cancellation is what a successful cancel reports back.
type Cancellation struct {
	Status    string `json:"status"`
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	// Quantity is the product's stock after the order's units were returned.
	Quantity int `json:"quantity"`
}

const CommandPlaceOrder = "place order"

var (
	ErrInvalid           = errors.New("invalid request")
	ErrDependency        = errors.New("dependency unavailable")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("exceeded quantity limit")
	ErrAlreadyCancelled  = errors.New("order already cancelled")
)

// ParsePlaceRequest reads a place-order body. Every field must be present and
// an integer; quantity must be positive.
func ParsePlaceRequest(body string) (PlaceRequest, error) {
	if cmd, ok := jsonfield.Get(body, "command"); !ok || !strings.EqualFold(cmd, CommandPlaceOrder) {
		return PlaceRequest{}, ErrInvalid
	}
	var (
		req PlaceRequest
		err error
	)
	if req.UserID, err = jsonfield.Int(body, "user_id"); err != nil {
		return PlaceRequest{}, ErrInvalid
	}
	if req.ProductID, err = jsonfield.Int(body, "product_id"); err != nil {
		return PlaceRequest{}, ErrInvalid
	}
	if req.Quantity, err = jsonfield.Int(body, "quantity"); err != nil {
		return PlaceRequest{}, ErrInvalid
	}
	if req.Quantity <= 0 {
		return PlaceRequest{}, ErrInvalid
	}
	return req, nil
}

// ParseID parses a numeric path id.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalid
	}
	return id, nil
}
