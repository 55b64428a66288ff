package k8s

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
)

// ScaleDeployment sets the replica count of a deployment.
// The deployment is read first so that a missing object or missing read
// permission surfaces before any write.
func (c *kubernetesClient) ScaleDeployment(ctx context.Context, req ScaleRequest) (*ScaleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return observe(ctx, c, "scale", "deployments", req.Namespace, func(ctx context.Context) (*ScaleResult, error) {
		h, err := c.handle(ctx, req.Context)
		if err != nil {
			return nil, err
		}

		c.logOperation("scale", h.Context, req.Namespace, "deployments", req.Name)
		id := Ident{Context: h.Context, Namespace: req.Namespace, Resource: "deployment", Name: req.Name}
		deployments := h.Kube.AppsV1().Deployments(req.Namespace)

		current, err := deployments.Get(ctx, req.Name, metav1.GetOptions{})
		if err != nil {
			return nil, Normalize(err, id)
		}
		previous := int32(1)
		if current.Spec.Replicas != nil {
			previous = *current.Spec.Replicas
		}

		replicas := int32(req.Replicas)
		patch, err := json.Marshal(map[string]interface{}{
			"spec": map[string]interface{}{"replicas": replicas},
		})
		if err != nil {
			return nil, newError(KindValidation, id, err, "failed to encode scale patch")
		}

		patched, err := deployments.Patch(ctx, req.Name, types.MergePatchType, patch, c.patchOptions())
		if err != nil {
			return nil, Normalize(err, id)
		}

		// Status lags the write until the controller converges.
		observed := patched.Status.Replicas

		c.logger.Info("Scaled deployment",
			"context", h.Context,
			"namespace", req.Namespace,
			"deployment", req.Name,
			"previous", previous,
			"replicas", replicas,
			"observed", observed,
			"dryRun", c.dryRun)

		return &ScaleResult{
			Context:           h.Context,
			Namespace:         req.Namespace,
			Name:              req.Name,
			RequestedReplicas: replicas,
			ObservedReplicas:  observed,
			PreviousReplicas:  previous,
			DryRun:            c.dryRun,
		}, nil
	})
}

// RolloutDeployment triggers a rolling restart by stamping the pod template
// with a restartedAt annotation. Every call restarts; calls are not merged.
func (c *kubernetesClient) RolloutDeployment(ctx context.Context, req RolloutRequest) (*RolloutResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return observe(ctx, c, "rollout", "deployments", req.Namespace, func(ctx context.Context) (*RolloutResult, error) {
		h, err := c.handle(ctx, req.Context)
		if err != nil {
			return nil, err
		}

		c.logOperation("rollout", h.Context, req.Namespace, "deployments", req.Name)
		id := Ident{Context: h.Context, Namespace: req.Namespace, Resource: "deployment", Name: req.Name}

		restartedAt := c.restarts.Next().Format(time.RFC3339Nano)
		patch, err := json.Marshal(map[string]interface{}{
			"spec": map[string]interface{}{
				"template": map[string]interface{}{
					"metadata": map[string]interface{}{
						"annotations": map[string]string{RestartedAtAnnotation: restartedAt},
					},
				},
			},
		})
		if err != nil {
			return nil, newError(KindValidation, id, err, "failed to encode rollout patch")
		}

		patched, err := h.Kube.AppsV1().Deployments(req.Namespace).Patch(ctx, req.Name, types.StrategicMergePatchType, patch, c.patchOptions())
		if err != nil {
			return nil, Normalize(err, id)
		}

		current := patched.Status.Replicas

		c.logger.Info("Restarted deployment",
			"context", h.Context,
			"namespace", req.Namespace,
			"deployment", req.Name,
			"restartedAt", restartedAt,
			"dryRun", c.dryRun)

		return &RolloutResult{
			Context:         h.Context,
			Namespace:       req.Namespace,
			Name:            req.Name,
			RestartedAt:     restartedAt,
			Accepted:        true,
			CurrentReplicas: current,
			DryRun:          c.dryRun,
		}, nil
	})
}

func (c *kubernetesClient) patchOptions() metav1.PatchOptions {
	if c.dryRun {
		return metav1.PatchOptions{DryRun: []string{metav1.DryRunAll}}
	}
	return metav1.PatchOptions{}
}

// restartClock hands out strictly increasing UTC timestamps.
type restartClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newRestartClock(now func() time.Time) *restartClock {
	return &restartClock{now: now}
}

// Next returns the current time, or one nanosecond after the previous value
// when the clock has not advanced.
func (r *restartClock) Next() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.now().UTC()
	if !t.After(r.last) {
		t = r.last.Add(time.Nanosecond)
	}
	r.last = t
	return t
}
