package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation is returned before any write when a request is malformed.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock is returned when open batches cannot cover a draw.
	// Nothing is written when it is returned.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrRecipeNotFound is returned when no recipe exists for the output item.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrItemNotFound is returned when a referenced catalog item is unknown.
	ErrItemNotFound = errors.New("item not found")
)

// ValidationError lists the offending fields and their failed rules.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, rule string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

// fromValidator converts validator output into a ValidationError.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
		fields[name] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// ShortageError describes an item whose open batches cannot cover a request.
type ShortageError struct {
	ItemID    string
	ItemName  string
	Requested float64
	Available float64
	Shortage  float64
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested %.4f, short by %.4f",
		e.ItemName, e.ItemID, e.Requested, e.Shortage)
}

func (e *ShortageError) Unwrap() error {
	return ErrInsufficientStock
}
