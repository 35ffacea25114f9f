package mp4parser

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// Source is a randomly addressable byte range. *bytes.Reader and
// *io.SectionReader satisfy it.
type Source interface {
	io.ReaderAt
	Size() int64
}

// NewBytesSource returns a Source over b.
func NewBytesSource(b []byte) Source {
	return bytes.NewReader(b)
}

// FileSource is a memory-mapped local file.
type FileSource struct {
	r *mmap.ReaderAt
}

// OpenFile maps the file at path read-only. Close releases the mapping.
func OpenFile(path string) (*FileSource, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mp4parser: open %s", path)
	}
	return &FileSource{r: r}, nil
}

// ReadAt implements io.ReaderAt.
func (f *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return f.r.ReadAt(p, off)
}

// Size returns the file length.
func (f *FileSource) Size() int64 { return int64(f.r.Len()) }

// Close unmaps the file.
func (f *FileSource) Close() error { return f.r.Close() }

// NewSource adapts r to a Source. Readers that cannot seek, including pipes
// and terminals that only fail at Seek time, are read to EOF into memory
// first. A seekable reader's position is restored before returning; the
// returned Source then reads from offset 0 regardless of that position.
func NewSource(r io.Reader) (Source, error) {
	return NewSourceContext(context.Background(), r)
}

// NewSourceContext is NewSource with cancellation of the buffering step.
func NewSourceContext(ctx context.Context, r io.Reader) (Source, error) {
	if src, ok := r.(Source); ok {
		return src, nil
	}
	if rs, ok := r.(io.ReadSeeker); ok {
		if cur, err := rs.Seek(0, io.SeekCurrent); err == nil {
			return seekableSource(rs, cur)
		}
	}
	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: r})
	if err != nil {
		return nil, errors.Wrap(err, "mp4parser: buffer input")
	}
	return bytes.NewReader(data), nil
}

// seekableSource sizes rs and puts its cursor back at cur.
func seekableSource(rs io.ReadSeeker, cur int64) (Source, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "mp4parser: determine input size")
	}
	if _, err := rs.Seek(cur, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "mp4parser: restore input position")
	}
	if ra, ok := rs.(io.ReaderAt); ok {
		return io.NewSectionReader(ra, 0, size), nil
	}
	return &seekerSource{rs: rs, size: size}, nil
}

// seekerSource adapts a ReadSeeker with a single cursor. It is not safe for
// concurrent use, which a parse never needs.
type seekerSource struct {
	rs   io.ReadSeeker
	size int64
}

func (s *seekerSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= s.size {
		return 0, io.EOF
	}
	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(s.rs, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func (s *seekerSource) Size() int64 { return s.size }

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
