package export

import (
	"errors"
	"fmt"

	"github.com/yairfalse/stocktake/pkg/resource"
)

var (
	// ErrUnknownResourceType is returned when a type is not part of the document.
	ErrUnknownResourceType = errors.New("unknown resource type")

	// ErrUnsupportedFormat is returned for an output format that cannot be written.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// UnknownResourceTypeError names the resource type that was requested.
type UnknownResourceTypeError struct {
	Type resource.Type
}

func (e *UnknownResourceTypeError) Error() string {
	return fmt.Sprintf("unknown resource type %q", e.Type)
}

func (e *UnknownResourceTypeError) Is(target error) bool {
	return target == ErrUnknownResourceType
}

// UnsupportedFormatError names the format that was requested.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q", e.Format)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}
