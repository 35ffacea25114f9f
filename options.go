package mp4parser

import (
	"log/slog"
	"slices"

	"github.com/pkg/errors"
)

// DefaultMaxDepth is the nesting depth at which descent stops by default.
const DefaultMaxDepth = 64

// Options configures a parse. The zero value is not usable; build one with
// NewOptions or DefaultOptions. An Options value is never modified after
// construction.
type Options struct {
	maxDepth   int
	strict     bool
	containers map[BoxType]struct{}
	logger     *slog.Logger
}

// Option customizes Options in NewOptions.
type Option func(*Options) error

// WithMaxDepth sets the depth at which recursion stops even for container
// boxes. 0 keeps only top-level boxes.
func WithMaxDepth(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return errors.Errorf("mp4parser: max depth must not be negative, got %d", n)
		}
		o.maxDepth = n
		return nil
	}
}

// WithStrict selects strict error handling: the first defect aborts the
// whole parse.
func WithStrict(strict bool) Option {
	return func(o *Options) error {
		o.strict = strict
		return nil
	}
}

// WithContainerTypes replaces the set of container boxes. A nil slice is
// rejected; an empty slice disables descent entirely.
func WithContainerTypes(types []BoxType) Option {
	return func(o *Options) error {
		if types == nil {
			return ErrNilContainerTypes
		}
		o.containers = make(map[BoxType]struct{}, len(types))
		for _, t := range types {
			o.containers[t] = struct{}{}
		}
		return nil
	}
}

// WithExtraContainerTypes adds types to the current container set.
func WithExtraContainerTypes(types ...BoxType) Option {
	return func(o *Options) error {
		for _, t := range types {
			o.containers[t] = struct{}{}
		}
		return nil
	}
}

// WithLogger sets the logger used to report lenient stops.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// NewOptions returns the defaults with opts applied in order.
func NewOptions(opts ...Option) (Options, error) {
	o := Options{
		maxDepth:   DefaultMaxDepth,
		containers: make(map[BoxType]struct{}, len(defaultContainerTypes)),
		logger:     slog.Default(),
	}
	for _, t := range defaultContainerTypes {
		o.containers[t] = struct{}{}
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}
	return o, nil
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	o, _ := NewOptions()
	return o
}

// MaxDepth returns the configured depth limit.
func (o Options) MaxDepth() int { return o.maxDepth }

// Strict reports whether defects abort the parse.
func (o Options) Strict() bool { return o.strict }

// Logger returns the configured logger.
func (o Options) Logger() *slog.Logger { return o.logger }

// IsContainer reports whether t is in the container set.
func (o Options) IsContainer(t BoxType) bool {
	_, ok := o.containers[t]
	return ok
}

// ContainerTypes returns the container set in byte order.
func (o Options) ContainerTypes() []BoxType {
	types := make([]BoxType, 0, len(o.containers))
	for t := range o.containers {
		types = append(types, t)
	}
	slices.SortFunc(types, func(a, b BoxType) int {
		return slices.Compare(a[:], b[:])
	})
	return types
}

// ShouldDescend reports whether the payload of a box of type t found at
// level is scanned for child boxes. mdat is never descended into.
func (o Options) ShouldDescend(t BoxType, payloadSize uint64, level int) bool {
	if payloadSize < headerSize {
		return false
	}
	if level >= o.maxDepth {
		return false
	}
	if t == TypeMdat {
		return false
	}
	return o.IsContainer(t)
}

// usable reports whether o was built by NewOptions.
func (o Options) usable() bool {
	return o.containers != nil && o.logger != nil
}
