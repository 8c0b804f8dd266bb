package suppliers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tdr/proveedores/internal/platform/kv"
)

// Storage keys for the supplier list and the seeded marker.
const (
	KeyList   = "tdr_proveedores"
	KeySeeded = "tdr_proveedores_seeded_v1"
)

// Repository mirrors the supplier list into durable storage.
type Repository interface {
	Load(ctx context.Context) ([]Supplier, error)
	Save(ctx context.Context, list []Supplier) error
	// SaveSeeded stores the list and the seeded marker together.
	SaveSeeded(ctx context.Context, list []Supplier) error
	Seeded(ctx context.Context) (bool, error)
	Clear(ctx context.Context) error
}

type repository struct {
	store kv.Store
}

// NewRepository builds a Repository on top of a key-value store.
func NewRepository(store kv.Store) Repository {
	return &repository{store: store}
}

// Load reads the stored list. Missing, corrupt or non-array values read as empty.
func (r *repository) Load(ctx context.Context) ([]Supplier, error) {
	raw, err := r.store.Get(ctx, KeyList)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []Supplier{}, nil
		}
		return nil, fmt.Errorf("suppliers: load list: %w", err)
	}
	if raw == "" {
		return []Supplier{}, nil
	}
	var list []Supplier
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []Supplier{}, nil
	}
	return list, nil
}

func (r *repository) Save(ctx context.Context, list []Supplier) error {
	data, err := encodeList(list)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, KeyList, data); err != nil {
		return fmt.Errorf("suppliers: save list: %w", err)
	}
	return nil
}

func (r *repository) SaveSeeded(ctx context.Context, list []Supplier) error {
	data, err := encodeList(list)
	if err != nil {
		return err
	}
	if err := r.store.SetMany(ctx, map[string]string{KeyList: data, KeySeeded: "true"}); err != nil {
		return fmt.Errorf("suppliers: save seeded list: %w", err)
	}
	return nil
}

func (r *repository) Seeded(ctx context.Context) (bool, error) {
	raw, err := r.store.Get(ctx, KeySeeded)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("suppliers: read seeded flag: %w", err)
	}
	return raw == "true", nil
}

func (r *repository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, KeyList, KeySeeded); err != nil {
		return fmt.Errorf("suppliers: clear storage: %w", err)
	}
	return nil
}

func encodeList(list []Supplier) (string, error) {
	if list == nil {
		list = []Supplier{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("suppliers: encode list: %w", err)
	}
	return string(data), nil
}
