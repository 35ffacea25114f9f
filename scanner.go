package mp4parser

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// scanFrame stores parent state when entering a container box.
type scanFrame struct {
	end    int64 // parent's scan end boundary
	resume int64 // position of the container's next sibling
}

// Scanner walks every box header of a Source in depth-first order without
// reading payloads. Children of a container are reported right after the
// container and before its next sibling.
//
// Typical usage:
//
//	sc := mp4parser.NewScanner(src, mp4parser.DefaultOptions())
//	for sc.Next() {
//	    h := sc.Header()
//	    // ...
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	ctx  context.Context
	src  Source
	opts Options
	log  *slog.Logger

	hdr [largeHeaderSize]byte // reusable header buffer
	cur BoxHeader

	pos   int64 // next box offset
	end   int64 // scan end of the current container
	level int
	stack []scanFrame

	pending *DefectError // defect found after cur was reported
	err     error
	done    bool
}

// NewScanner creates a Scanner over src. Options not built by NewOptions
// are replaced with DefaultOptions.
func NewScanner(src Source, opts Options) *Scanner {
	return NewScannerContext(context.Background(), src, opts)
}

// NewScannerContext creates a Scanner that stops with ctx.Err() once ctx is
// done. Cancellation is checked once per box.
func NewScannerContext(ctx context.Context, src Source, opts Options) *Scanner {
	if !opts.usable() {
		opts = DefaultOptions()
	}
	return &Scanner{
		ctx:  ctx,
		src:  src,
		opts: opts,
		log:  opts.logger,
		end:  src.Size(),
	}
}

// Next advances to the next box header. It returns false when the input is
// exhausted, a strict defect or I/O error occurs, or the context is done.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	if d := s.pending; d != nil {
		s.pending = nil
		if !s.fail(d) {
			return false
		}
	}

	for {
		if err := s.ctx.Err(); err != nil {
			return s.stop(err)
		}

		if s.end-s.pos < headerSize {
			if !s.exit() {
				return s.stop(nil)
			}
			continue
		}

		h, ok, d, err := s.readHeader()
		if err != nil {
			return s.stop(err)
		}
		if !ok {
			// Fewer than 8 bytes left in the source: end of data, not a defect.
			if !s.exit() {
				return s.stop(nil)
			}
			continue
		}
		if d == nil {
			d = checkBounds(h.typ, h.headerSize, h.size, s.pos, s.end)
		}
		if d != nil {
			if !s.fail(d) {
				return false
			}
			continue
		}

		s.cur = BoxHeader{
			Type:          h.typ,
			Size:          h.size,
			Offset:        s.pos,
			Level:         s.level,
			HeaderSize:    h.headerSize,
			PayloadOffset: s.pos + int64(h.headerSize),
			PayloadSize:   h.size - uint64(h.headerSize),
		}
		s.advance()
		return true
	}
}

// Header returns the current box header. Only valid after Next returns true.
func (s *Scanner) Header() BoxHeader {
	return s.cur
}

// Err returns the error that ended the scan: a *DefectError in strict mode,
// an I/O error, or the context's error. A lenient scan never returns a
// DefectError.
func (s *Scanner) Err() error {
	return s.err
}

// readHeader reads and decodes the header at s.pos. ok is false when the
// source holds fewer than 8 bytes there. A cut-off 64-bit size is returned
// as a TruncatedHeader defect.
func (s *Scanner) readHeader() (h rawHeader, ok bool, d *DefectError, err error) {
	n, err := s.src.ReadAt(s.hdr[:headerSize], s.pos)
	if n < headerSize {
		if err != nil && err != io.EOF {
			return h, false, nil, errors.Wrapf(err, "mp4parser: read header at offset %d", s.pos)
		}
		return h, false, nil, nil
	}

	h = decodeHeader(s.hdr[:headerSize], s.pos, s.end)
	if !h.large {
		return h, true, nil, nil
	}

	n, err = s.src.ReadAt(s.hdr[headerSize:largeHeaderSize], s.pos+headerSize)
	if n < largeHeaderSize-headerSize {
		if err != nil && err != io.EOF {
			return h, false, nil, errors.Wrapf(err, "mp4parser: read large size at offset %d", s.pos)
		}
		return h, true, &DefectError{Kind: TruncatedHeader, Type: h.typ, Offset: s.pos, End: s.end}, nil
	}
	decodeLargeSize(&h, s.hdr[headerSize:largeHeaderSize])
	return h, true, nil, nil
}

// advance positions the scanner after reporting s.cur: into its children
// when the container policy allows, otherwise at its next sibling.
func (s *Scanner) advance() {
	h := s.cur
	boxEnd := h.End()
	childStart, childEnd := h.PayloadOffset, boxEnd

	if h.Type == TypeMeta && s.opts.IsContainer(TypeMeta) && s.level < s.opts.maxDepth {
		// meta is a full box: version and flags precede the children.
		if h.PayloadSize < fullBoxPrefix {
			s.pending = &DefectError{Kind: MalformedMeta, Type: h.Type, Offset: h.Offset, Size: h.Size, End: s.end}
			s.pos = boxEnd
			return
		}
		childStart += fullBoxPrefix
	}

	if !s.opts.ShouldDescend(h.Type, h.PayloadSize, s.level) {
		s.pos = boxEnd
		return
	}
	s.stack = append(s.stack, scanFrame{end: s.end, resume: boxEnd})
	s.level++
	s.pos = childStart
	s.end = childEnd
}

// exit returns to the parent container. It reports false at top level.
func (s *Scanner) exit() bool {
	if len(s.stack) == 0 {
		return false
	}
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.level--
	s.end = f.end
	s.pos = f.resume
	return true
}

// fail applies the error policy to d. Strict mode ends the scan with d;
// lenient mode abandons the current container and reports whether
// scanning can continue in an ancestor.
func (s *Scanner) fail(d *DefectError) bool {
	if s.opts.strict {
		return s.stop(d)
	}
	s.logStop(d)
	if !s.exit() {
		return s.stop(nil)
	}
	return true
}

func (s *Scanner) logStop(d *DefectError) {
	s.log.Debug("stopping container scan",
		"kind", d.Kind.String(),
		"type", d.Type.String(),
		"offset", d.Offset,
		"level", s.level,
		"error", d.Error(),
	)
}

func (s *Scanner) stop(err error) bool {
	s.err = err
	s.done = true
	return false
}
