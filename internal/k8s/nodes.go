package k8s

import (
	"context"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"

	"github.com/giantswarm/mcp-kubeops/internal/logging"
)

// ListNodes returns nodes ordered by name with a cluster summary.
// Usage is attached when requested; a missing metrics API only marks usage unavailable.
func (c *kubernetesClient) ListNodes(ctx context.Context, req ListNodesRequest) (*NodeList, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return observe(ctx, c, "list", "nodes", "", func(ctx context.Context) (*NodeList, error) {
		h, err := c.handle(ctx, req.Context)
		if err != nil {
			return nil, err
		}

		c.logOperation("list", h.Context, "", "nodes", "")
		id := Ident{Context: h.Context, Resource: "node"}

		list, err := read(ctx, c, "list", "nodes", func(ctx context.Context) (*corev1.NodeList, error) {
			l, err := h.Kube.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
			return l, Normalize(err, id)
		})
		if err != nil {
			return nil, err
		}

		items := list.Items
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

		now := c.now()
		nodes := make([]NodeSummary, 0, len(items))
		for i := range items {
			nodes = append(nodes, nodeSummary(&items[i], now))
		}

		result := &NodeList{
			Context: h.Context,
			Nodes:   nodes,
			Summary: clusterSummary(items, nodes),
		}

		if req.IncludeUsage {
			result.UsageRequested = true
			c.attachUsage(ctx, h, items, result)
		}

		return result, nil
	})
}

func (c *kubernetesClient) attachUsage(ctx context.Context, h *ClientHandle, items []corev1.Node, result *NodeList) {
	if h.Metrics == nil {
		result.UsageError = "metrics API client is not available"
		return
	}

	metrics, err := h.Metrics.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		normalized := Normalize(err, Ident{Context: h.Context, Resource: "nodemetrics"})
		c.logger.Warn("Node metrics unavailable", logging.Context(h.Context), logging.SanitizedErr(normalized))
		result.UsageError = normalized.Error()
		return
	}

	byName := make(map[string]metricsv1beta1.NodeMetrics, len(metrics.Items))
	for _, m := range metrics.Items {
		byName[m.Name] = m
	}

	for i := range result.Nodes {
		m, ok := byName[result.Nodes[i].Name]
		if !ok {
			continue
		}
		result.Nodes[i].Usage = nodeUsage(m, items[i].Status.Allocatable)
	}
	result.UsageAvailable = true
}
