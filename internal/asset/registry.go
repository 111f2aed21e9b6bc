package asset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known tokens.
type Registry struct {
	mu        sync.RWMutex
	byAddress map[common.Address]*Token
	bySymbol  map[string]*Token
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[common.Address]*Token),
		bySymbol:  make(map[string]*Token),
	}
}

// Register adds a token. Panics if the address is already registered.
func (r *Registry) Register(t *Token) {
	if t == nil {
		panic("asset: cannot register nil token")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAddress[t.Address]; exists {
		panic(fmt.Sprintf("asset: %s already registered", t.Address.Hex()))
	}
	r.byAddress[t.Address] = t
	if t.Symbol != "" {
		r.bySymbol[strings.ToUpper(t.Symbol)] = t
	}
}

// Get retrieves a token by address.
func (r *Registry) Get(address common.Address) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byAddress[address]
	return t, ok
}

// BySymbol retrieves a token by case-insensitive symbol.
func (r *Registry) BySymbol(symbol string) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// Decimals returns the registered decimals for address.
func (r *Registry) Decimals(address common.Address) (int32, bool) {
	t, ok := r.Get(address)
	if !ok {
		return 0, false
	}
	return t.Decimals, true
}

// All returns every registered token.
func (r *Registry) All() []*Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Token, 0, len(r.byAddress))
	for _, t := range r.byAddress {
		result = append(result, t)
	}
	return result
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}
