package k8s

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// staticDiscovery is an in-memory Discovery.
type staticDiscovery struct {
	mu       sync.Mutex
	contexts []ContextInfo
	current  string
	err      error
	calls    int
}

func newStaticDiscovery(current string, names ...string) *staticDiscovery {
	d := &staticDiscovery{current: current}
	for _, name := range names {
		d.contexts = append(d.contexts, ContextInfo{Name: name, Cluster: name + "-cluster", User: name + "-user"})
	}
	return d
}

func (d *staticDiscovery) Contexts(_ context.Context) ([]ContextInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	out := make([]ContextInfo, len(d.contexts))
	copy(out, d.contexts)
	return out, nil
}

func (d *staticDiscovery) CurrentContext(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	return d.current, nil
}

// recordingLogger collects log messages.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.record(msg) }

// recordingMetrics implements MetricsRecorder.
type recordingMetrics struct {
	mu         sync.Mutex
	operations []string
	retries    int
}

func (m *recordingMetrics) RecordK8sOperation(_ context.Context, operation, resourceType, _, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, operation+"/"+resourceType+"/"+status)
}

func (m *recordingMetrics) RecordK8sRetry(_ context.Context, _, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

type testEnv struct {
	client    *kubernetesClient
	kube      map[string]*fake.Clientset
	metrics   map[string]*metricsfake.Clientset
	discovery *staticDiscovery
	recorder  *recordingMetrics
}

// newTestEnv builds a client over two contexts, "alpha" (default) and "beta".
// objs are loaded into the "alpha" clientset.
func newTestEnv(t *testing.T, objs ...runtime.Object) *testEnv {
	t.Helper()

	env := &testEnv{
		kube: map[string]*fake.Clientset{
			"alpha": fake.NewSimpleClientset(objs...),
			"beta":  fake.NewSimpleClientset(),
		},
		metrics: map[string]*metricsfake.Clientset{
			"alpha": metricsfake.NewSimpleClientset(),
			"beta":  metricsfake.NewSimpleClientset(),
		},
		discovery: newStaticDiscovery("alpha", "alpha", "beta"),
		recorder:  &recordingMetrics{},
	}

	registry, err := NewContextRegistry(context.Background(), env.discovery, nil, nil)
	require.NoError(t, err)

	builder := BuilderFunc(func(_ context.Context, name string) (*ClientHandle, error) {
		kube, ok := env.kube[name]
		if !ok {
			return nil, unknownContext(name)
		}
		return &ClientHandle{Context: name, Host: "https://" + name + ".example.com", Kube: kube, Metrics: env.metrics[name]}, nil
	})

	client, err := NewClient(&ClientConfig{
		Registry:  registry,
		Cache:     NewClientCache(builder, ClientCacheConfig{}),
		ReadRetry: RetryPolicy{Backoff: time.Millisecond, Attempts: DefaultReadAttempts},
		Metrics:   env.recorder,
		Logger:    &recordingLogger{},
	})
	require.NoError(t, err)

	client.now = func() time.Time { return testNow }
	env.client = client
	return env
}

func int32Ptr(v int32) *int32 { return &v }

func int64Ptr(v int64) *int64 { return &v }
