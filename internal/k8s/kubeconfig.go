package k8s

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"
)

// RestOptions are applied to every rest.Config built by a loader.
type RestOptions struct {
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	// VerifyConnectivity probes /healthz before a handle is handed out.
	VerifyConnectivity bool
}

func (o RestOptions) withDefaults() RestOptions {
	if o.QPSLimit == 0 {
		o.QPSLimit = DefaultQPSLimit
	}
	if o.BurstLimit == 0 {
		o.BurstLimit = DefaultBurstLimit
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout * time.Second
	}
	return o
}

func (o RestOptions) apply(cfg *rest.Config) {
	cfg.QPS = o.QPSLimit
	cfg.Burst = o.BurstLimit
	cfg.Timeout = o.Timeout
}

// KubeconfigLoader discovers contexts from a kubeconfig and builds clients for them.
// The kubeconfig is re-read on every call.
type KubeconfigLoader struct {
	path    string
	options RestOptions
	logger  Logger
}

// NewKubeconfigLoader creates a loader for path. An empty path falls back to
// $KUBECONFIG and then to the client-go default locations.
func NewKubeconfigLoader(path string, options RestOptions, logger Logger) *KubeconfigLoader {
	if logger == nil {
		logger = nopLogger{}
	}
	return &KubeconfigLoader{
		path:    resolveKubeconfigPath(path),
		options: options.withDefaults(),
		logger:  logger,
	}
}

func resolveKubeconfigPath(path string) string {
	if path == "" {
		path = os.Getenv("KUBECONFIG")
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}

func (l *KubeconfigLoader) loadingRules() *clientcmd.ClientConfigLoadingRules {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if l.path != "" {
		rules.ExplicitPath = l.path
	}
	return rules
}

func (l *KubeconfigLoader) rawConfig() (*clientcmdapi.Config, error) {
	cfg := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(l.loadingRules(), &clientcmd.ConfigOverrides{})
	raw, err := cfg.RawConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	return &raw, nil
}

// Contexts implements Discovery.
func (l *KubeconfigLoader) Contexts(_ context.Context) ([]ContextInfo, error) {
	raw, err := l.rawConfig()
	if err != nil {
		return nil, err
	}

	contexts := make([]ContextInfo, 0, len(raw.Contexts))
	for name, c := range raw.Contexts {
		info := ContextInfo{Name: name, Current: name == raw.CurrentContext}
		if c != nil {
			info.Cluster = c.Cluster
			info.User = c.AuthInfo
			info.Namespace = c.Namespace
		}
		contexts = append(contexts, info)
	}
	sort.Slice(contexts, func(i, j int) bool { return contexts[i].Name < contexts[j].Name })
	return contexts, nil
}

// CurrentContext implements Discovery.
func (l *KubeconfigLoader) CurrentContext(_ context.Context) (string, error) {
	raw, err := l.rawConfig()
	if err != nil {
		return "", err
	}
	return raw.CurrentContext, nil
}

// Build implements Builder.
func (l *KubeconfigLoader) Build(ctx context.Context, name string) (*ClientHandle, error) {
	raw, err := l.rawConfig()
	if err != nil {
		return nil, newError(KindConnection, Ident{Context: name}, err, "failed to read kubeconfig")
	}
	if _, ok := raw.Contexts[name]; !ok {
		return nil, unknownContext(name)
	}

	cfg, err := clientcmd.NewDefaultClientConfig(*raw, &clientcmd.ConfigOverrides{CurrentContext: name}).ClientConfig()
	if err != nil {
		return nil, newError(KindConnection, Ident{Context: name}, err, "failed to create rest config")
	}
	l.options.apply(cfg)

	l.logger.Debug("Building client", "context", name, "qps", cfg.QPS, "burst", cfg.Burst, "timeout", cfg.Timeout)
	return newClientHandle(ctx, name, cfg, l.options.VerifyConnectivity)
}

// InClusterLoader exposes the service account of the running pod as the
// single context "in-cluster".
type InClusterLoader struct {
	options       RestOptions
	namespacePath string
	restConfig    func() (*rest.Config, error)
}

// NewInClusterLoader creates a loader using rest.InClusterConfig.
func NewInClusterLoader(options RestOptions) *InClusterLoader {
	return &InClusterLoader{
		options:       options.withDefaults(),
		namespacePath: DefaultNamespacePath,
		restConfig:    rest.InClusterConfig,
	}
}

// ValidateEnvironment checks that the service account files are mounted.
func (l *InClusterLoader) ValidateEnvironment() error {
	for _, path := range []string{DefaultTokenPath, DefaultCACertPath, l.namespacePath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("service account file not found at %s", path)
		}
	}
	return nil
}

// Contexts implements Discovery.
func (l *InClusterLoader) Contexts(_ context.Context) ([]ContextInfo, error) {
	info := ContextInfo{Name: InClusterContext, Cluster: InClusterContext, User: "serviceaccount", Current: true}
	if data, err := os.ReadFile(l.namespacePath); err == nil {
		info.Namespace = strings.TrimSpace(string(data))
	}
	return []ContextInfo{info}, nil
}

// CurrentContext implements Discovery.
func (l *InClusterLoader) CurrentContext(_ context.Context) (string, error) {
	return InClusterContext, nil
}

// Build implements Builder.
func (l *InClusterLoader) Build(ctx context.Context, name string) (*ClientHandle, error) {
	if name != InClusterContext {
		return nil, unknownContext(name)
	}
	cfg, err := l.restConfig()
	if err != nil {
		return nil, newError(KindConnection, Ident{Context: name}, err, "failed to create in-cluster rest config")
	}
	l.options.apply(cfg)
	return newClientHandle(ctx, name, cfg, l.options.VerifyConnectivity)
}

func newClientHandle(ctx context.Context, name string, cfg *rest.Config, verify bool) (*ClientHandle, error) {
	id := Ident{Context: name}

	kube, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, newError(KindConnection, id, err, "failed to create clientset")
	}
	metrics, err := metricsclientset.NewForConfig(cfg)
	if err != nil {
		return nil, newError(KindConnection, id, err, "failed to create metrics clientset")
	}

	if verify {
		if _, err := kube.Discovery().RESTClient().Get().AbsPath("/healthz").DoRaw(ctx); err != nil {
			return nil, Normalize(err, id)
		}
	}

	return &ClientHandle{
		Context: name,
		Host:    cfg.Host,
		Kube:    kube,
		Metrics: metrics,
	}, nil
}
