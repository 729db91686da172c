package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Ensemble/internal/domain"
)

// Ошибки регистрации.
var (
	// ErrEmptyID — дескриптор без модуля или действия.
	ErrEmptyID = errors.New("descriptor has empty module or action")

	// ErrNegativePhase — фаза меньше нуля.
	ErrNegativePhase = errors.New("descriptor phase must be non-negative")

	// ErrNilHandler — дескриптор без handler.
	ErrNilHandler = errors.New("descriptor has nil handler")

	// ErrDuplicate — действие с таким идентификатором уже зарегистрировано.
	ErrDuplicate = errors.New("action already registered")

	// ErrNotFound — действие не найдено в реестре.
	ErrNotFound = errors.New("action not registered")
)

// Registry — реестр дескрипторов действий.
//
// Заполняется при старте процесса, далее только читается.
// Потокобезопасен.
type Registry struct {
	mu      sync.RWMutex
	actions map[domain.ActionID]*domain.Descriptor
}

// New создаёт пустой реестр.
func New() *Registry {
	return &Registry{
		actions: make(map[domain.ActionID]*domain.Descriptor),
	}
}

// Register регистрирует дескриптор действия.
//
// Возвращает ошибку при пустом идентификаторе, отрицательной фазе,
// отсутствующем handler или повторной регистрации.
func (r *Registry) Register(d domain.Descriptor) error {
	if d.Module == "" || d.Action == "" {
		return ErrEmptyID
	}
	if d.Phase < 0 {
		return fmt.Errorf("%w: %s has phase %d", ErrNegativePhase, d.ID(), d.Phase)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, d.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := d.ID()
	if _, exists := r.actions[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}

	r.actions[id] = &d
	return nil
}

// MustRegister регистрирует дескриптор и паникует при ошибке.
// Удобно для регистрации модулей при старте процесса.
func (r *Registry) MustRegister(d domain.Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup возвращает дескриптор по идентификатору.
// Возвращает ErrNotFound, если действие не зарегистрировано.
func (r *Registry) Lookup(id domain.ActionID) (*domain.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.actions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, nil
}

// Has проверяет, зарегистрировано ли действие.
func (r *Registry) Has(id domain.ActionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.actions[id]
	return exists
}

// All возвращает все дескрипторы, отсортированные по идентификатору.
func (r *Registry) All() []*domain.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Descriptor, 0, len(r.actions))
	for _, d := range r.actions {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID().String() < all[j].ID().String()
	})
	return all
}

// ForKind возвращает дескрипторы, участвующие в контекстах указанного типа.
func (r *Registry) ForKind(kind string) []*domain.Descriptor {
	all := r.All()

	matched := make([]*domain.Descriptor, 0, len(all))
	for _, d := range all {
		if d.ParticipatesIn(kind) {
			matched = append(matched, d)
		}
	}
	return matched
}

// Count возвращает количество зарегистрированных действий.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Kinds возвращает все типы контекстов, упомянутые дескрипторами.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, d := range r.actions {
		for _, k := range d.Contexts {
			seen[k] = true
		}
	}

	kinds := make([]string, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
