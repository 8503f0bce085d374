package refmap

import (
	"errors"
	"fmt"

	"github.com/refbio/refmap/index"
	"github.com/refbio/refmap/projection"
	"github.com/refbio/refmap/transfer"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = index.ErrInvalidK

	// ErrIndexNotBuilt is returned on index lifecycle misuse.
	ErrIndexNotBuilt = index.ErrIndexNotBuilt

	// ErrEmptyIndex is returned when there are no reference points to search.
	ErrEmptyIndex = index.ErrEmptyIndex
)

// ErrDimensionMismatch indicates a feature or embedding shape disagreement.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrMissingLabel indicates a reference sample id with no corresponding
// label, i.e. upstream corruption between embedding and label arrays.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrMissingLabel struct {
	ID    uint32
	cause error
}

func (e *ErrMissingLabel) Error() string {
	return fmt.Sprintf("no label for reference sample %d", e.ID)
}

func (e *ErrMissingLabel) Unwrap() error { return e.cause }

// translateError normalizes errors from the leaf packages into the root
// package's error contract.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var idm *index.ErrDimensionMismatch
	if errors.As(err, &idm) {
		return &ErrDimensionMismatch{Expected: idm.Expected, Actual: idm.Actual, cause: err}
	}
	var pdm *projection.ErrDimensionMismatch
	if errors.As(err, &pdm) {
		return &ErrDimensionMismatch{Expected: pdm.Expected, Actual: pdm.Actual, cause: err}
	}
	var ml *transfer.ErrMissingLabel
	if errors.As(err, &ml) {
		return &ErrMissingLabel{ID: ml.ID, cause: err}
	}

	return err
}
