// Package fetch downloads remote media to local temporary files so they can
// be memory-mapped and parsed.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 3

// IsURL reports whether s is an absolute http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Fetcher downloads URLs into temporary files.
type Fetcher struct {
	Client     *http.Client  // nil means http.DefaultClient
	Dir        string        // temp directory; empty means os.TempDir
	MaxRetries uint64        // retries after the first attempt
	MaxBackoff time.Duration // upper bound for one retry delay; 0 means 10s
	Logger     *slog.Logger  // nil means slog.Default
}

// New returns a Fetcher with default settings.
func New(logger *slog.Logger) *Fetcher {
	return &Fetcher{MaxRetries: DefaultMaxRetries, Logger: logger}
}

// Fetch downloads rawURL to a new temporary file and returns its path. The
// caller owns the file and must remove it. Network errors and 5xx responses
// are retried with exponential backoff; other responses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if !IsURL(rawURL) {
		return "", errors.Errorf("fetch: not an http(s) URL: %q", rawURL)
	}
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	eb.MaxInterval = 10 * time.Second
	if f.MaxBackoff > 0 {
		eb.MaxInterval = f.MaxBackoff
		if eb.InitialInterval > f.MaxBackoff {
			eb.InitialInterval = f.MaxBackoff
		}
	}
	b := backoff.WithContext(backoff.WithMaxRetries(eb, f.MaxRetries), ctx)

	var path string
	op := func() error {
		p, err := f.download(ctx, rawURL)
		if err != nil {
			return err
		}
		path = p
		return nil
	}
	notify := func(err error, d time.Duration) {
		log.Warn("download failed, retrying", "url", rawURL, "delay", d, "error", err)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return "", err
	}
	return path, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", backoff.Permanent(errors.Wrap(err, "fetch: build request"))
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", errors.Wrapf(err, "fetch: GET %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{URL: rawURL, Code: resp.StatusCode}
		if resp.StatusCode >= 500 {
			return "", serr
		}
		return "", backoff.Permanent(serr)
	}

	tmp, err := os.CreateTemp(f.Dir, "mp4parser_*.mp4")
	if err != nil {
		return "", backoff.Permanent(errors.Wrap(err, "fetch: create temp file"))
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "fetch: download %s", rawURL)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", backoff.Permanent(errors.Wrap(err, "fetch: close temp file"))
	}
	return tmp.Name(), nil
}
