package redisx

import "time"

const (
	// Cached order: order:{id} -> order JSON
	KeyOrder = "order:%d"
	// Pattern matching every cached order, for clear.
	PatternOrders = "order:*"
)

var TTLOrderCache = 5 * time.Minute
