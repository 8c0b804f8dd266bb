package suppliers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"
)

// Seed tiers reported by Seeder.Load.
const (
	SeedRemote   = "remote"
	SeedFallback = "fallback"
	SeedEmpty    = "empty"
)

// DefaultSeedURL is the published seed document.
const DefaultSeedURL = "https://jagoldemberg-dotcom.github.io/proveedoreseed/proveedores.json"

// Source yields the records of a seed document.
type Source interface {
	Fetch(ctx context.Context) ([]Supplier, error)
}

// HTTPSource fetches a JSON array with a GET request.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns an HTTPSource with its own client timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]Supplier, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("suppliers: seed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("suppliers: seed fetch: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("suppliers: seed fetch returned status %d", resp.StatusCode)
	}
	return decodeSeed(resp.Body)
}

// FSSource reads a JSON array from a file system, typically an embedded one.
type FSSource struct {
	FS   fs.FS
	Path string
}

// Fetch implements Source.
func (s FSSource) Fetch(ctx context.Context) ([]Supplier, error) {
	if s.FS == nil {
		return nil, fmt.Errorf("suppliers: fallback file system not configured")
	}
	f, err := s.FS.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("suppliers: open fallback %s: %w", s.Path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return decodeSeed(f)
}

func decodeSeed(r io.Reader) ([]Supplier, error) {
	var records []seedRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("suppliers: decode seed: %w", err)
	}
	list := make([]Supplier, 0, len(records))
	for _, rec := range records {
		list = append(list, rec.normalize())
	}
	return list, nil
}

// Seeder walks the remote source, then the fallback, then gives up with an
// empty list.
type Seeder struct {
	Remote   Source
	Fallback Source
	Logger   *slog.Logger
}

// Load returns the seed list and the tier that produced it. It never fails.
func (s *Seeder) Load(ctx context.Context) ([]Supplier, string) {
	if s.Remote != nil {
		list, err := s.Remote.Fetch(ctx)
		if err == nil {
			return list, SeedRemote
		}
		s.warn("remote seed failed", err)
	}
	if s.Fallback != nil {
		list, err := s.Fallback.Fetch(ctx)
		if err == nil {
			return list, SeedFallback
		}
		s.warn("fallback seed failed", err)
	}
	return []Supplier{}, SeedEmpty
}

func (s *Seeder) warn(msg string, err error) {
	if s.Logger != nil {
		s.Logger.Warn(msg, slog.Any("error", err))
	}
}
