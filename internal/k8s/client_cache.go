package k8s

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
	"k8s.io/client-go/kubernetes"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/giantswarm/mcp-kubeops/internal/logging"
)

// ClientHandle is an authenticated API client bound to one context.
// Handles are owned by the ClientCache and shared by all operations.
type ClientHandle struct {
	Context string
	Host    string
	Kube    kubernetes.Interface
	// Metrics is nil when the metrics API client could not be created.
	Metrics metricsclientset.Interface
}

// Builder constructs a ClientHandle for a context.
type Builder interface {
	Build(ctx context.Context, name string) (*ClientHandle, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, name string) (*ClientHandle, error)

// Build implements Builder.
func (f BuilderFunc) Build(ctx context.Context, name string) (*ClientHandle, error) {
	return f(ctx, name)
}

// CacheMetricsCallback is an interface for recording cache metrics.
// This allows the cache to report metrics without depending on the instrumentation package.
type CacheMetricsCallback interface {
	// OnCacheHit is called when a cache hit occurs.
	OnCacheHit()
	// OnCacheMiss is called when a cache miss occurs.
	OnCacheMiss()
	// OnCacheSizeChange is called when the cache size changes.
	OnCacheSizeChange(size int)
}

// ClientCacheConfig holds configuration options for the client cache.
type ClientCacheConfig struct {
	// Metrics is an optional callback for recording cache metrics.
	Metrics CacheMetricsCallback
	Logger  Logger
}

// ClientCache maps context names to client handles.
//
// At most one handle is ever constructed per context, even under concurrent
// first use. Failed constructions are not cached. Entries are never evicted.
type ClientCache struct {
	builder Builder
	metrics CacheMetricsCallback
	logger  Logger

	mu      sync.RWMutex
	handles map[string]*ClientHandle

	group singleflight.Group
}

// NewClientCache creates an empty cache backed by builder.
func NewClientCache(builder Builder, config ClientCacheConfig) *ClientCache {
	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &ClientCache{
		builder: builder,
		metrics: config.Metrics,
		logger:  logger,
		handles: make(map[string]*ClientHandle),
	}
}

// Get returns the cached handle for name, constructing it on first use.
func (c *ClientCache) Get(ctx context.Context, name string) (*ClientHandle, error) {
	if name == "" {
		return nil, NewValidationError(Ident{}, "context name is required")
	}

	if handle := c.lookup(name); handle != nil {
		c.recordHit()
		return handle, nil
	}
	c.recordMiss()

	// The build outlives a cancelled caller so that other waiters are not failed by it.
	ch := c.group.DoChan(name, func() (interface{}, error) {
		if handle := c.lookup(name); handle != nil {
			return handle, nil
		}

		handle, err := c.builder.Build(context.WithoutCancel(ctx), name)
		if err != nil {
			c.logger.Warn("Failed to build client", logging.Context(name), logging.SanitizedErr(err))
			return nil, buildError(name, err)
		}
		return c.insert(name, handle), nil
	})

	select {
	case <-ctx.Done():
		return nil, Normalize(ctx.Err(), Ident{Context: name})
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ClientHandle), nil
	}
}

// Len returns the number of cached handles.
func (c *ClientCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}

// Contexts returns the names of cached contexts, sorted.
func (c *ClientCache) Contexts() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.handles))
	for name := range c.handles {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (c *ClientCache) lookup(name string) *ClientHandle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handles[name]
}

// insert stores handle unless another one is already present, and returns the stored handle.
func (c *ClientCache) insert(name string, handle *ClientHandle) *ClientHandle {
	c.mu.Lock()
	if existing, ok := c.handles[name]; ok {
		c.mu.Unlock()
		return existing
	}
	c.handles[name] = handle
	size := len(c.handles)
	c.mu.Unlock()

	c.logger.Debug("Cached client", logging.Context(name), logging.Host(handle.Host), "size", size)
	if c.metrics != nil {
		c.metrics.OnCacheSizeChange(size)
	}
	return handle
}

func (c *ClientCache) recordHit() {
	if c.metrics != nil {
		c.metrics.OnCacheHit()
	}
}

func (c *ClientCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.OnCacheMiss()
	}
}

// buildError keeps UnknownContext and reports every other failure as ConnectionError.
func buildError(name string, err error) error {
	id := Ident{Context: name}
	switch KindOf(err) {
	case KindUnknownContext, KindConnection:
		return Normalize(err, id)
	}
	return newError(KindConnection, id, err, "failed to create client")
}
