package k8s

import (
	"context"
	"sort"
	"sync"
)

// Discovery enumerates the contexts available to the process.
// Implementations read their source on every call so that the result is a
// point-in-time view.
type Discovery interface {
	// Contexts returns every known context.
	Contexts(ctx context.Context) ([]ContextInfo, error)

	// CurrentContext returns the context the source marks as current, or "".
	CurrentContext(ctx context.Context) (string, error)
}

// DefaultContextStore holds the process-wide default context.
// The zero value is an unset store.
type DefaultContextStore struct {
	mu   sync.RWMutex
	name string
}

// NewDefaultContextStore creates a store seeded with name ("" leaves it unset).
func NewDefaultContextStore(name string) *DefaultContextStore {
	return &DefaultContextStore{name: name}
}

// Get returns the default context and whether one is set.
func (s *DefaultContextStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name, s.name != ""
}

// Set replaces the default context.
func (s *DefaultContextStore) Set(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// ContextRegistry resolves context names against discovery and the default
// context store. It never writes to the underlying kubeconfig.
type ContextRegistry struct {
	discovery Discovery
	store     *DefaultContextStore
	logger    Logger
}

// NewContextRegistry creates a registry over discovery.
//
// When store is nil or unset it is seeded from discovery's current context.
// A pre-seeded store must name a known context.
func NewContextRegistry(ctx context.Context, discovery Discovery, store *DefaultContextStore, logger Logger) (*ContextRegistry, error) {
	if store == nil {
		store = &DefaultContextStore{}
	}
	if logger == nil {
		logger = nopLogger{}
	}

	r := &ContextRegistry{
		discovery: discovery,
		store:     store,
		logger:    logger,
	}

	if name, ok := store.Get(); ok {
		if _, err := r.Resolve(ctx, name); err != nil {
			return nil, err
		}
		logger.Info("Using configured default context", "context", name)
		return r, nil
	}

	current, err := discovery.CurrentContext(ctx)
	if err != nil {
		return nil, r.discoveryError(err)
	}
	if current == "" {
		logger.Warn("No current context found, callers must name a context explicitly")
		return r, nil
	}

	known, err := r.has(ctx, current)
	if err != nil {
		return nil, err
	}
	if !known {
		logger.Warn("Current context is not defined, leaving default context unset", "context", current)
		return r, nil
	}

	store.Set(current)
	logger.Info("Using current context as default", "context", current)
	return r, nil
}

// ListContexts returns every known context sorted by name, with the default marked.
func (r *ContextRegistry) ListContexts(ctx context.Context) ([]ContextInfo, error) {
	contexts, err := r.discovery.Contexts(ctx)
	if err != nil {
		return nil, r.discoveryError(err)
	}

	defaultName, _ := r.store.Get()
	result := make([]ContextInfo, len(contexts))
	for i, c := range contexts {
		c.Current = c.Name == defaultName
		result[i] = c
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// GetDefaultContext returns the default context or a NoContextConfigured error.
func (r *ContextRegistry) GetDefaultContext() (string, error) {
	name, ok := r.store.Get()
	if !ok {
		return "", newError(KindNoContextConfigured, Ident{}, nil, "no default context is configured")
	}
	return name, nil
}

// SetDefaultContext replaces the default context after validating it.
// Only process state changes.
func (r *ContextRegistry) SetDefaultContext(ctx context.Context, name string) error {
	if name == "" {
		return NewValidationError(Ident{}, "context name is required")
	}

	known, err := r.has(ctx, name)
	if err != nil {
		return err
	}
	if !known {
		return unknownContext(name)
	}

	previous, _ := r.store.Get()
	r.store.Set(name)
	r.logger.Info("Default context changed", "previous", previous, "context", name)
	return nil
}

// Resolve returns the context to use for an operation: name itself when it is
// known, the default context when name is empty.
func (r *ContextRegistry) Resolve(ctx context.Context, name string) (string, error) {
	if name == "" {
		return r.GetDefaultContext()
	}

	known, err := r.has(ctx, name)
	if err != nil {
		return "", err
	}
	if !known {
		return "", unknownContext(name)
	}
	return name, nil
}

func (r *ContextRegistry) has(ctx context.Context, name string) (bool, error) {
	contexts, err := r.discovery.Contexts(ctx)
	if err != nil {
		return false, r.discoveryError(err)
	}
	for _, c := range contexts {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *ContextRegistry) discoveryError(err error) error {
	if KindOf(err) != "" {
		return err
	}
	return newError(KindConnection, Ident{}, err, "failed to read available contexts")
}

func unknownContext(name string) *Error {
	return newError(KindUnknownContext, Ident{Context: name}, nil, "context %q does not exist", name)
}
