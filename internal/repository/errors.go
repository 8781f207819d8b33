// Package repository defines the persistence layer for the order core.
// Sentinel errors declared here are reused across repositories so that
// higher layers such as handlers can distinguish failure scenarios
// without string matching.
package repository

import "errors"

// ErrProductNotFound is returned when a referenced product does not
// exist in the catalog.  Handlers translate this into HTTP 404.
var ErrProductNotFound = errors.New("product not found")

// ErrOrderNotFound is returned when an order id does not resolve to a
// stored order.
var ErrOrderNotFound = errors.New("order not found")

// ErrTableNotFound is returned when a table number is unknown.  Tables
// are fixed physical inventory, so this always indicates caller error.
var ErrTableNotFound = errors.New("table not found")
