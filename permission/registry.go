package permission

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrFrozen            = errors.New("permission: frozen")
	ErrEmptyName         = errors.New("permission: empty name")
	ErrDuplicate         = errors.New("permission: already registered")
	ErrLimit             = errors.New("permission: more than 64 permissions")
	ErrUnknownPermission = errors.New("permission: not registered")
)

// Registry hands out bit positions in registration order.
type Registry struct {
	mu     sync.RWMutex
	names  []string
	bits   map[string]int
	frozen bool
}

func NewRegistry() *Registry {
	return &Registry{bits: map[string]int{}}
}

// Register returns the bit assigned to name.
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.frozen:
		return -1, ErrFrozen
	case name == "":
		return -1, ErrEmptyName
	case len(r.names) == 64:
		return -1, ErrLimit
	}
	if _, dup := r.bits[name]; dup {
		return -1, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	bit := len(r.names)
	r.names = append(r.names, name)
	r.bits[name] = bit
	return bit, nil
}

// MaskOf builds the mask covering every named permission.
func (r *Registry) MaskOf(names ...string) (Mask64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var m Mask64
	for _, n := range names {
		bit, ok := r.bits[n]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownPermission, n)
		}
		m.Set(bit)
	}
	return m, nil
}

func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bit < 0 || bit >= len(r.names) {
		return "", false
	}
	return r.names[bit], true
}

func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}
