// Package index provides the interfaces and shared types for approximate
// nearest neighbor indexes.
package index

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrIndexNotBuilt is returned when Search is called before Build.
	ErrIndexNotBuilt = errors.New("index not built")

	// ErrIndexBuilt is returned when Add or Build is called after the index
	// has been finalized.
	ErrIndexBuilt = errors.New("index already built")

	// ErrEmptyIndex is returned when Build is called on an index with no points.
	ErrEmptyIndex = errors.New("index is empty")
)

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension is a named error type for an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

// Error returns the error message for an invalid dimension.
func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrDuplicateID is a named error type for inserting an id twice.
type ErrDuplicateID struct {
	ID uint32
}

// Error returns the error message for a duplicate id.
func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate id: %d", e.ID)
}

// SearchResult represents a single approximate nearest neighbor.
type SearchResult struct {
	// ID is the identifier of the matched point.
	ID uint32

	// Distance is the angular distance between the query and the matched point.
	Distance float32
}

// Searcher is the read side of a finalized index. Implementations must be
// safe for concurrent use once the index is built.
type Searcher interface {
	// Search returns the (approximate) k nearest neighbors of q, nearest
	// first. If fewer than k points exist, all of them are returned.
	Search(q []float32, k int) ([]SearchResult, error)

	// Len returns the number of indexed points.
	Len() int
}

// Builder is the write side of an index: points are added one by one, then
// the index is finalized with Build. After Build the index is read-only.
type Builder interface {
	Searcher

	// Add inserts a vector under a caller-chosen id.
	Add(id uint32, v []float32) error

	// Build finalizes the index. It blocks until the index is query-ready.
	Build() error
}
