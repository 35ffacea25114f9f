package mp4parser

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
)

// initialCapacity covers the header count of a typical progressive MP4.
const initialCapacity = 256

// Parser parses inputs with a fixed set of Options. A Parser holds no
// per-parse state and may be shared by concurrent goroutines.
type Parser struct {
	opts Options
}

// NewParser builds a Parser from the defaults with opts applied.
func NewParser(opts ...Option) (*Parser, error) {
	o, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Parser{opts: o}, nil
}

// Options returns the parser's configuration.
func (p *Parser) Options() Options { return p.opts }

// Parse returns every box header of src in depth-first order. In strict
// mode the headers found before a defect are returned along with it.
func (p *Parser) Parse(src Source) ([]BoxHeader, error) {
	return p.collect(NewScanner(src, p.opts))
}

// ParseContext is Parse with cancellation checked at each box boundary.
// On cancellation it returns the headers found so far and ctx.Err().
func (p *Parser) ParseContext(ctx context.Context, src Source) ([]BoxHeader, error) {
	return p.collect(NewScannerContext(ctx, src, p.opts))
}

// ParseReader parses r, buffering it in memory first if it cannot seek.
// Seekable readers are parsed from offset 0 regardless of their position.
func (p *Parser) ParseReader(r io.Reader) ([]BoxHeader, error) {
	return p.ParseReaderContext(context.Background(), r)
}

// ParseReaderContext is ParseReader with cancellation.
func (p *Parser) ParseReaderContext(ctx context.Context, r io.Reader) ([]BoxHeader, error) {
	src, err := NewSourceContext(ctx, r)
	if err != nil {
		return nil, err
	}
	return p.ParseContext(ctx, src)
}

// ParseFile parses the local file at path.
func (p *Parser) ParseFile(path string) ([]BoxHeader, error) {
	return p.ParseFileContext(context.Background(), path)
}

// ParseFileContext is ParseFile with cancellation.
func (p *Parser) ParseFileContext(ctx context.Context, path string) ([]BoxHeader, error) {
	if path == "" {
		return nil, errors.New("mp4parser: empty file path")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "mp4parser")
	}
	if fi.Size() == 0 {
		return []BoxHeader{}, nil
	}
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.ParseContext(ctx, f)
}

func (p *Parser) collect(sc *Scanner) ([]BoxHeader, error) {
	out := make([]BoxHeader, 0, initialCapacity)
	for sc.Next() {
		out = append(out, sc.Header())
	}
	return out, sc.Err()
}

// Parse parses src with the given options.
func Parse(src Source, opts ...Option) ([]BoxHeader, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.Parse(src)
}

// ParseContext parses src with the given options until ctx is done.
func ParseContext(ctx context.Context, src Source, opts ...Option) ([]BoxHeader, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.ParseContext(ctx, src)
}

// ParseReader parses r with the given options.
func ParseReader(r io.Reader, opts ...Option) ([]BoxHeader, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.ParseReader(r)
}

// ParseFile parses the file at path with the given options.
func ParseFile(path string, opts ...Option) ([]BoxHeader, error) {
	p, err := NewParser(opts...)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(path)
}
