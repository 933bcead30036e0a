// Package orderstest provides in-memory stand-ins for the order store and the
// user/product catalog.
package orderstest

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-microshop/internal/orders"
)

// Store mirrors orders.Repo over maps. Each method holds the lock for its whole
// body, which stands in for the database transaction.
type Store struct {
	mu     sync.Mutex
	orders map[int]orders.Order
	stock  map[int]int
	nextID int

	// FailCommit, when set, is returned by the next write instead of committing.
	FailCommit error
}

func NewStore() *Store {
	return &Store{orders: map[int]orders.Order{}, stock: map[int]int{}, nextID: 1}
}

func (s *Store) SetStock(productID, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[productID] = qty
}

func (s *Store) DeleteProduct(productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stock, productID)
}

func (s *Store) Stock(productID int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.stock[productID]
	return q, ok
}

func (s *Store) PlaceOrderTx(_ context.Context, req orders.PlaceRequest) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return orders.Order{}, err
	}
	have, ok := s.stock[req.ProductID]
	if !ok {
		return orders.Order{}, orders.ErrProductNotFound
	}
	if have < req.Quantity {
		return orders.Order{}, orders.ErrInsufficientStock
	}
	s.stock[req.ProductID] = have - req.Quantity
	o := orders.Order{
		ID:        s.nextID,
		ProductID: req.ProductID,
		UserID:    req.UserID,
		Quantity:  req.Quantity,
		Status:    orders.StatusSuccess,
	}
	s.nextID++
	s.orders[o.ID] = o
	return o, nil
}

func (s *Store) CancelOrderTx(_ context.Context, id int) (orders.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, 0, orders.ErrOrderNotFound
	}
	if o.Status != orders.StatusSuccess {
		return orders.Order{}, 0, orders.ErrAlreadyCancelled
	}
	if err := s.takeFailure(); err != nil {
		return orders.Order{}, 0, err
	}
	have, ok := s.stock[o.ProductID]
	if !ok {
		return orders.Order{}, 0, orders.ErrProductNotFound
	}
	o.Status = orders.StatusCancelled
	s.orders[id] = o
	s.stock[o.ProductID] = have + o.Quantity
	return o, have + o.Quantity, nil
}

func (s *Store) GetOrder(_ context.Context, id int) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (s *Store) UserPurchases(_ context.Context, userID int) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int]int{}
	for _, o := range s.orders {
		if o.UserID == userID && o.Status == orders.StatusSuccess {
			out[o.ProductID] += o.Quantity
		}
	}
	return out, nil
}

func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = map[int]orders.Order{}
	s.nextID = 1
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *Store) takeFailure() error {
	err := s.FailCommit
	s.FailCommit = nil
	return err
}
