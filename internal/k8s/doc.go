// Package k8s provides context-scoped access to Kubernetes clusters.
//
// A ContextRegistry resolves context names against a Discovery source
// (kubeconfig or in-cluster) and a process-wide default context. A
// ClientCache turns a resolved name into a shared, authenticated
// ClientHandle, constructing at most one handle per context.
//
// The Client interface is broken down into focused concerns:
//
//   - ContextManager: list contexts, get and set the default context
//   - ResourceReader: pods, pod detail, deployments, nodes and logs
//   - ResourceMutator: deployment scale and rollout restart
//
// Every failure is reported as an *Error whose Kind is one of a closed set
// (UnknownContext, NoContextConfigured, ConnectionError, NotFound,
// AmbiguousContainer, ForbiddenError, ValidationError), carrying the context,
// namespace, resource and name involved.
//
// Example usage:
//
//	loader := k8s.NewKubeconfigLoader("", k8s.RestOptions{}, logger)
//	registry, err := k8s.NewContextRegistry(ctx, loader, nil, logger)
//	if err != nil {
//		return err
//	}
//	client, err := k8s.NewClient(&k8s.ClientConfig{
//		Registry: registry,
//		Cache:    k8s.NewClientCache(loader, k8s.ClientCacheConfig{}),
//	})
//	if err != nil {
//		return err
//	}
//
//	pods, err := client.ListPods(ctx, k8s.ListPodsRequest{Namespace: "default"})
//	if errors.Is(err, k8s.ErrNotFound) {
//		...
//	}
package k8s
