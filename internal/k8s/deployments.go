package k8s

import (
	"context"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ListDeployments returns deployments ordered by namespace then name.
func (c *kubernetesClient) ListDeployments(ctx context.Context, req ListDeploymentsRequest) (*DeploymentList, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return observe(ctx, c, "list", "deployments", req.Namespace, func(ctx context.Context) (*DeploymentList, error) {
		h, err := c.handle(ctx, req.Context)
		if err != nil {
			return nil, err
		}

		c.logOperation("list", h.Context, req.Namespace, "deployments", "")
		id := Ident{Context: h.Context, Namespace: req.Namespace, Resource: "deployment"}

		list, err := read(ctx, c, "list", "deployments", func(ctx context.Context) (*appsv1.DeploymentList, error) {
			l, err := h.Kube.AppsV1().Deployments(req.Namespace).List(ctx, metav1.ListOptions{LabelSelector: req.LabelSelector})
			return l, Normalize(err, id)
		})
		if err != nil {
			return nil, err
		}

		items := list.Items
		sort.Slice(items, func(i, j int) bool {
			if items[i].Namespace != items[j].Namespace {
				return items[i].Namespace < items[j].Namespace
			}
			return items[i].Name < items[j].Name
		})

		now := c.now()
		deployments := make([]DeploymentSummary, 0, len(items))
		for i := range items {
			deployments = append(deployments, deploymentSummary(&items[i], now))
		}

		return &DeploymentList{
			Context:     h.Context,
			Namespace:   req.Namespace,
			Count:       len(deployments),
			Deployments: deployments,
		}, nil
	})
}

// GetDeployment returns the rollout status of a single deployment.
func (c *kubernetesClient) GetDeployment(ctx context.Context, req DeploymentRequest) (*DeploymentStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Namespace == "" {
		req.Namespace = c.defaultNamespace
	}

	return observe(ctx, c, "get", "deployments", req.Namespace, func(ctx context.Context) (*DeploymentStatus, error) {
		h, err := c.handle(ctx, req.Context)
		if err != nil {
			return nil, err
		}

		c.logOperation("get", h.Context, req.Namespace, "deployments", req.Name)
		id := Ident{Context: h.Context, Namespace: req.Namespace, Resource: "deployment", Name: req.Name}

		deployment, err := read(ctx, c, "get", "deployments", func(ctx context.Context) (*appsv1.Deployment, error) {
			d, err := h.Kube.AppsV1().Deployments(req.Namespace).Get(ctx, req.Name, metav1.GetOptions{})
			return d, Normalize(err, id)
		})
		if err != nil {
			return nil, err
		}

		return deploymentStatus(h.Context, deployment, c.now()), nil
	})
}
