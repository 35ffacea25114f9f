package mp4parser

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMalformed is matched by every *DefectError.
	ErrMalformed = errors.New("mp4parser: malformed box structure")

	// ErrNilContainerTypes is returned by WithContainerTypes for a nil set.
	ErrNilContainerTypes = errors.New("mp4parser: container type set must not be nil")
)

// DefectKind classifies a structural defect in the input.
type DefectKind int

const (
	// TruncatedHeader: the 64-bit size of a large box is cut off.
	TruncatedHeader DefectKind = iota + 1
	// UndersizedBox: the declared size is smaller than the header.
	UndersizedBox
	// UnrepresentableSize: the declared size does not fit in an int64.
	UnrepresentableSize
	// ContainerOverrun: the box ends past its enclosing container.
	ContainerOverrun
	// MalformedMeta: a meta box is too small for its version and flags.
	MalformedMeta
)

func (k DefectKind) String() string {
	switch k {
	case TruncatedHeader:
		return "truncated header"
	case UndersizedBox:
		return "undersized box"
	case UnrepresentableSize:
		return "unrepresentable size"
	case ContainerOverrun:
		return "container overrun"
	case MalformedMeta:
		return "malformed meta"
	}
	return fmt.Sprintf("DefectKind(%d)", int(k))
}

// DefectError reports a box that violates the format. In strict mode it
// aborts the parse; in lenient mode it only ends the scan of the enclosing
// container and is never returned.
type DefectError struct {
	Kind   DefectKind
	Type   BoxType
	Offset int64  // offset of the offending box
	Size   uint64 // declared size, 0 when it could not be read
	End    int64  // end of the enclosing container
}

func (e *DefectError) Error() string {
	switch e.Kind {
	case TruncatedHeader:
		return fmt.Sprintf("mp4parser: truncated large size for box '%s' at offset %d", e.Type, e.Offset)
	case UndersizedBox:
		return fmt.Sprintf("mp4parser: invalid box size %d for '%s' at offset %d", e.Size, e.Type, e.Offset)
	case UnrepresentableSize:
		return fmt.Sprintf("mp4parser: box '%s' at offset %d is too large for this parser, size=%d", e.Type, e.Offset, e.Size)
	case ContainerOverrun:
		return fmt.Sprintf("mp4parser: box '%s' at offset %d overflows its container, size=%d, container_end=%d", e.Type, e.Offset, e.Size, e.End)
	case MalformedMeta:
		return fmt.Sprintf("mp4parser: meta box too small for full-box header at offset %d, size=%d", e.Offset, e.Size)
	}
	return fmt.Sprintf("mp4parser: %s in box '%s' at offset %d", e.Kind, e.Type, e.Offset)
}

// Unwrap returns ErrMalformed.
func (e *DefectError) Unwrap() error { return ErrMalformed }
