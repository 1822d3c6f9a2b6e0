package permission

import (
	"errors"
	"sync"
)

// RoleManager holds the permission mask of each named role.
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string]Mask64
	frozen bool
}

func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{registry: registry, roles: map[string]Mask64{}}
}

func (rm *RoleManager) RegisterRole(role string, perms []string) error {
	if role == "" {
		return errors.New("permission: empty role name")
	}
	mask, err := rm.registry.MaskOf(perms...)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.frozen {
		return ErrFrozen
	}
	if _, dup := rm.roles[role]; dup {
		return ErrDuplicate
	}
	rm.roles[role] = mask
	return nil
}

// Allows reports whether role holds every permission of required.
// Unknown names on either side never match.
func (rm *RoleManager) Allows(role, required string) bool {
	rm.mu.RLock()
	have, okHave := rm.roles[role]
	need, okNeed := rm.roles[required]
	rm.mu.RUnlock()
	return okHave && okNeed && have.Covers(need)
}

func (rm *RoleManager) Mask(role string) (Mask64, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	m, ok := rm.roles[role]
	return m, ok
}

func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	rm.frozen = true
	rm.mu.Unlock()
}

func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}
