package raster

import (
	"errors"
	"fmt"
)

// ShapeMismatchError is returned when rasters that must agree in
// dimensions, band count, or pixel scale do not.
type ShapeMismatchError struct {
	Field string
	Want  string
	Got   string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("raster %s mismatch: want %s, got %s", e.Field, e.Want, e.Got)
}

// NotFoundError is returned when no band carries a requested name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no band named %q", e.Name)
}

// OutOfRangeError is returned when a pixel or tile placement falls
// outside a raster's bounds.
type OutOfRangeError struct {
	What          string
	X, Y          float64
	Width, Height int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s (%g, %g) outside %dx%d raster", e.What, e.X, e.Y, e.Width, e.Height)
}

// PreconditionError is returned when an operation is invoked on inputs
// that violate its contract, like merging zero tiles or inverting a
// transform with a zero pixel scale.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// IsShapeMismatch reports whether any error in err's chain is a ShapeMismatchError.
func IsShapeMismatch(err error) bool {
	var e *ShapeMismatchError
	return errors.As(err, &e)
}

// IsNotFound reports whether any error in err's chain is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsOutOfRange reports whether any error in err's chain is an OutOfRangeError.
func IsOutOfRange(err error) bool {
	var e *OutOfRangeError
	return errors.As(err, &e)
}

// IsPrecondition reports whether any error in err's chain is a PreconditionError.
func IsPrecondition(err error) bool {
	var e *PreconditionError
	return errors.As(err, &e)
}
