// Package registry holds the in-memory asset registry. Assets are appended,
// never removed; later writes only backfill fields the registry does not know
// yet, so previously seen metadata is never silently overwritten.
package registry

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jak-pan/hydration-stats/internal/model"
)

// Decimal defaults per source convention: native-chain assets use 12,
// EVM-style assets use 18.
const (
	DefaultDecimals    int32 = 12
	DefaultEVMDecimals int32 = 18
)

// Registry is the shared append-only asset registry.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]model.Asset
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byID: make(map[string]model.Asset)}
}

// Get returns the asset for id.
func (r *Registry) Get(id string) (model.Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// Put inserts the asset, or backfills missing fields of an existing entry.
// Known non-zero fields are kept as they are.
func (r *Registry) Put(a model.Asset) {
	if a.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[a.ID]
	if !ok {
		r.byID[a.ID] = a
		r.order = append(r.order, a.ID)
		return
	}

	if existing.RegistryID == "" {
		existing.RegistryID = a.RegistryID
	}
	if existing.Name == "" {
		existing.Name = a.Name
	}
	if existing.Symbol == "" {
		existing.Symbol = a.Symbol
	}
	if existing.Decimals == 0 {
		existing.Decimals = a.Decimals
	}
	if existing.Kind == "" {
		existing.Kind = a.Kind
	}
	r.byID[a.ID] = existing
}

// Resolve returns the known asset for id, or a placeholder with the given
// fallback decimals when the id has never been registered.
func (r *Registry) Resolve(id string, fallbackDecimals int32) model.Asset {
	if a, ok := r.Get(id); ok {
		if a.Decimals == 0 {
			a.Decimals = fallbackDecimals
		}
		return a
	}
	return Placeholder(id, fallbackDecimals)
}

// All returns the assets in insertion order.
func (r *Registry) All() []model.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Asset, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Placeholder builds the soft-default identity for an unknown asset.
func Placeholder(id string, decimals int32) model.Asset {
	suffix := id
	if len(suffix) > 2 {
		suffix = suffix[len(suffix)-2:]
	}
	return model.Asset{
		ID:       id,
		Name:     fmt.Sprintf("Unknown Asset %s", id),
		Symbol:   "UNK" + suffix,
		Decimals: decimals,
	}
}

// IsEVMAssetID reports whether the id uses the alternate-chain hex identifier
// format (an EVM address).
func IsEVMAssetID(id string) bool {
	return common.IsHexAddress(id)
}
