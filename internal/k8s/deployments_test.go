package k8s

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func newDeployment(namespace, name string, replicas *int32, ready int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			Namespace:         namespace,
			CreationTimestamp: metav1.NewTime(testNow.Add(-90 * time.Minute)),
			Labels:            map[string]string{"app": name},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: replicas,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: map[string]string{"app": name}},
				Spec:       corev1.PodSpec{Containers: []corev1.Container{{Name: "app", Image: "nginx"}}},
			},
		},
		Status: appsv1.DeploymentStatus{
			Replicas:          ready,
			ReadyReplicas:     ready,
			AvailableReplicas: ready,
			UpdatedReplicas:   ready,
		},
	}
}

func TestListDeployments(t *testing.T) {
	failing := newDeployment("prod", "api", int32Ptr(2), 2)
	failing.Status.Conditions = []appsv1.DeploymentCondition{{
		Type:   appsv1.DeploymentProgressing,
		Status: corev1.ConditionFalse,
		Reason: "ProgressDeadlineExceeded",
	}}

	env := newTestEnv(t,
		newDeployment("prod", "web", int32Ptr(3), 3),
		failing,
		newDeployment("dev", "web", nil, 0),
	)

	list, err := env.client.ListDeployments(context.Background(), ListDeploymentsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Deployments, 3)
	assert.Equal(t, 3, list.Count)

	dev := list.Deployments[0]
	assert.Equal(t, "dev", dev.Namespace)
	assert.Equal(t, int32(1), dev.DesiredReplicas, "nil replicas defaults to 1")
	assert.False(t, dev.Healthy)
	assert.Equal(t, "1h30m", dev.Age)
	assert.Equal(t, string(appsv1.RollingUpdateDeploymentStrategyType), dev.Strategy)

	api := list.Deployments[1]
	assert.Equal(t, "api", api.Name)
	assert.False(t, api.Healthy, "a failed condition marks the deployment unhealthy")
	require.Len(t, api.Conditions, 1)
	assert.Equal(t, "ProgressDeadlineExceeded", api.Conditions[0].Reason)

	web := list.Deployments[2]
	assert.Equal(t, "web", web.Name)
	assert.Equal(t, "prod", web.Namespace)
	assert.True(t, web.Healthy)
	assert.Equal(t, int32(3), web.ReadyReplicas)
}

func TestListDeploymentsNamespaceFilter(t *testing.T) {
	env := newTestEnv(t,
		newDeployment("prod", "web", int32Ptr(1), 1),
		newDeployment("dev", "web", int32Ptr(1), 1),
	)

	list, err := env.client.ListDeployments(context.Background(), ListDeploymentsRequest{Namespace: "dev"})
	require.NoError(t, err)
	require.Len(t, list.Deployments, 1)
	assert.Equal(t, "dev", list.Deployments[0].Namespace)
	assert.Equal(t, "dev", list.Namespace)
}

func TestListDeploymentsUnknownContext(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.ListDeployments(context.Background(), ListDeploymentsRequest{Context: "gamma"})
	assert.Equal(t, KindUnknownContext, KindOf(err))
}

func TestGetDeployment(t *testing.T) {
	rolling := newDeployment("prod", "web", int32Ptr(3), 2)
	rolling.Generation = 5
	rolling.Status.ObservedGeneration = 4
	rolling.Status.Replicas = 3
	rolling.Status.UnavailableReplicas = 1
	rolling.Spec.Selector = &metav1.LabelSelector{MatchLabels: map[string]string{"app": "web"}}
	env := newTestEnv(t, rolling)

	status, err := env.client.GetDeployment(context.Background(), DeploymentRequest{Namespace: "prod", Name: "web"})
	require.NoError(t, err)

	assert.Equal(t, "alpha", status.Context)
	assert.Equal(t, "web", status.Name)
	assert.Equal(t, int32(3), status.DesiredReplicas)
	assert.Equal(t, int64(5), status.Generation)
	assert.Equal(t, int64(4), status.ObservedGeneration)
	assert.Equal(t, int32(1), status.UnavailableReplicas)
	assert.False(t, status.RolloutComplete)
	assert.Equal(t, map[string]string{"app": "web"}, status.Selector)
	assert.Equal(t, []string{"nginx"}, status.Images)
}

func TestGetDeploymentRolloutComplete(t *testing.T) {
	done := newDeployment(DefaultNamespace, "web", int32Ptr(2), 2)
	done.Generation = 7
	done.Status.ObservedGeneration = 7
	env := newTestEnv(t, done)

	status, err := env.client.GetDeployment(context.Background(), DeploymentRequest{Name: "web"})
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, status.Namespace, "empty namespace uses the default")
	assert.True(t, status.RolloutComplete)
	assert.True(t, status.Healthy)
}

func TestGetDeploymentErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.GetDeployment(context.Background(), DeploymentRequest{Namespace: "prod"})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Empty(t, env.kube["alpha"].Actions())

	_, err = env.client.GetDeployment(context.Background(), DeploymentRequest{Namespace: "prod", Name: "missing"})
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), `deployment "missing" not found`)

	_, err = env.client.GetDeployment(context.Background(), DeploymentRequest{Context: "gamma", Name: "web"})
	assert.Equal(t, KindUnknownContext, KindOf(err))
}
