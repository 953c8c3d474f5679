package slot

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// RegistryOption configures a [Registry].
type RegistryOption func(*registryOptions)

type registryOptions struct {
	policy       Policy
	hook         Hook
	allowReplace bool
}

// WithDefaultPolicy sets the policy for slots registered without [WithPolicy].
func WithDefaultPolicy(p Policy) RegistryOption {
	return func(o *registryOptions) { o.policy = p }
}

// WithRegistryHook installs a hook on every slot registered without [WithHook].
func WithRegistryHook(h Hook) RegistryOption {
	return func(o *registryOptions) { o.hook = h }
}

// WithAllowReplace permits replacing an existing registration.
// A replaced slot's value, if any, is discarded with it.
func WithAllowReplace() RegistryOption {
	return func(o *registryOptions) { o.allowReplace = true }
}

// Status is a snapshot of one registered slot.
type Status struct {
	Name     string
	State    State
	Attempts int64
	Policy   Policy
	Doc      string
}

// Registry is a container of named slots handed to the code that needs them.
//
// Names are case-insensitive and trimmed. Registration and lookup are safe for
// concurrent use. Constructors run under their own slot's lock, never under
// the registry lock, so a constructor may itself resolve other slots.
type Registry struct {
	mu     sync.RWMutex
	slots  map[string]*Slot[any]
	opt    registryOptions
	sealed atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	var o registryOptions
	for _, fn := range opts {
		fn(&o)
	}

	return &Registry{
		slots: make(map[string]*Slot[any]),
		opt:   o,
	}
}

func normalizeName(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}

	return key, nil
}

// Register adds a lazily constructed slot under name.
func (r *Registry) Register(name string, ctor Constructor[any], opts ...Option) error {
	if r.Sealed() {
		return ErrSealed
	}

	if ctor == nil {
		return ErrNilConstructor
	}

	key, err := normalizeName(name)
	if err != nil {
		return err
	}

	slotOpts := make([]Option, 0, len(opts)+3)
	slotOpts = append(slotOpts, WithPolicy(r.opt.policy), WithHook(r.opt.hook))
	slotOpts = append(slotOpts, opts...)
	slotOpts = append(slotOpts, WithName(key))

	s := New(ctor, slotOpts...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Sealed() {
		return ErrSealed
	}

	if _, exists := r.slots[key]; exists && !r.opt.allowReplace {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}

	r.slots[key] = s

	return nil
}

// MustRegister panics on registration error.
func (r *Registry) MustRegister(name string, ctor Constructor[any], opts ...Option) {
	if err := r.Register(name, ctor, opts...); err != nil {
		panic(err)
	}
}

// Provide registers a typed constructor under name.
func Provide[T any](r *Registry, name string, ctor Constructor[T], opts ...Option) error {
	if ctor == nil {
		return ErrNilConstructor
	}

	return r.Register(name, func() (any, error) {
		v, err := ctor()
		if err != nil {
			return nil, err
		}

		return v, nil
	}, opts...)
}

// Get returns the value of the named slot, constructing it on first use.
func (r *Registry) Get(name string) (any, error) {
	s, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	return s.Get()
}

// Resolve returns the named slot's value as a T.
func Resolve[T any](r *Registry, name string) (T, error) {
	var zero T

	v, err := r.Get(name)
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, want %T", ErrTypeMismatch, strings.ToLower(strings.TrimSpace(name)), v, zero)
	}

	return t, nil
}

func (r *Registry) lookup(name string) (*Slot[any], error) {
	key, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	s, ok := r.slots[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, key)
	}

	return s, nil
}

// Names returns all registered names in lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.slots))
	for k := range r.slots {
		names = append(names, k)
	}
	r.mu.RUnlock()

	sort.Strings(names)

	return names
}

// Status returns a snapshot of every slot, ordered by name.
func (r *Registry) Status() []Status {
	r.mu.RLock()
	items := make([]Status, 0, len(r.slots))
	for k, s := range r.slots {
		items = append(items, Status{
			Name:     k,
			State:    s.State(),
			Attempts: s.Attempts(),
			Policy:   s.Policy(),
			Doc:      s.opts.doc,
		})
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	return items
}

// Sealed reports whether further registrations are rejected.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

// Seal rejects further registrations. It reports whether this call changed
// the registry from unsealed to sealed.
func (r *Registry) Seal() bool { return !r.sealed.Swap(true) }
