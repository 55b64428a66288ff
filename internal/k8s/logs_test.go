package k8s

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

func multiContainerPod() *corev1.Pod {
	pod := newPod("prod", "web", corev1.PodRunning, true, 0)
	pod.Spec.Containers = append(pod.Spec.Containers, corev1.Container{Name: "sidecar", Image: "envoy"})
	pod.Status.ContainerStatuses = append(pod.Status.ContainerStatuses, corev1.ContainerStatus{Name: "sidecar", Ready: true})
	return pod
}

func TestGetLogsSingleContainer(t *testing.T) {
	env := newTestEnv(t, newPod("prod", "web", corev1.PodRunning, true, 0))

	payload, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web"})
	require.NoError(t, err)

	assert.Equal(t, "alpha", payload.Context)
	assert.Equal(t, "app", payload.Container)
	assert.Equal(t, DefaultLogTailLines, payload.TailLines)
	assert.True(t, payload.Truncated, "fewer lines than the default tail")
	assert.Equal(t, []string{"fake logs"}, payload.Lines)
	assert.Equal(t, 1, payload.LineCount)
}

func TestGetLogsAmbiguousContainer(t *testing.T) {
	env := newTestEnv(t, multiContainerPod())

	_, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousContainer))

	var typed *Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, []string{"app", "sidecar"}, typed.Containers)

	payload, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web", Container: "sidecar"})
	require.NoError(t, err)
	assert.Equal(t, "sidecar", payload.Container)
}

func TestGetLogsUnknownContainer(t *testing.T) {
	env := newTestEnv(t, multiContainerPod())

	_, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web", Container: "db"})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), `container "db" not found`)
}

func TestGetLogsTail(t *testing.T) {
	tests := []struct {
		name              string
		tail              *int64
		expectedTail      int64
		expectedTruncated bool
	}{
		{name: "nil uses default", tail: nil, expectedTail: DefaultLogTailLines, expectedTruncated: true},
		{name: "zero uses default", tail: int64Ptr(0), expectedTail: DefaultLogTailLines, expectedTruncated: true},
		{name: "negative uses default", tail: int64Ptr(-5), expectedTail: DefaultLogTailLines, expectedTruncated: true},
		{name: "exactly the available lines", tail: int64Ptr(1), expectedTail: 1},
		{name: "within cap", tail: int64Ptr(250), expectedTail: 250, expectedTruncated: true},
		{name: "at cap", tail: int64Ptr(DefaultLogTailCap), expectedTail: DefaultLogTailCap, expectedTruncated: true},
		{name: "above cap is clamped", tail: int64Ptr(DefaultLogTailCap + 1), expectedTail: DefaultLogTailCap, expectedTruncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, newPod("prod", "web", corev1.PodRunning, true, 0))

			payload, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web", TailLines: tt.tail})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedTail, payload.TailLines)
			assert.Equal(t, tt.expectedTruncated, payload.Truncated)
		})
	}
}

func TestGetLogsFewerLinesThanRequested(t *testing.T) {
	env := newTestEnv(t, newPod("prod", "web", corev1.PodRunning, true, 0))

	payload, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web", TailLines: int64Ptr(50)})
	require.NoError(t, err)

	assert.Equal(t, int64(50), payload.TailLines)
	assert.Equal(t, 1, payload.LineCount)
	assert.True(t, payload.Truncated)
}

func TestGetLogsPrevious(t *testing.T) {
	t.Run("no restart", func(t *testing.T) {
		env := newTestEnv(t, newPod("prod", "web", corev1.PodRunning, true, 0))

		_, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web", Previous: true})
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "no previous terminated instance")
	})

	t.Run("restarted without termination state", func(t *testing.T) {
		env := newTestEnv(t, newPod("prod", "web", corev1.PodRunning, true, 3))

		_, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web", Previous: true})
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("restarted container", func(t *testing.T) {
		pod := newPod("prod", "web", corev1.PodRunning, true, 1)
		pod.Status.ContainerStatuses[0].LastTerminationState = corev1.ContainerState{
			Terminated: &corev1.ContainerStateTerminated{ExitCode: 137, Reason: "OOMKilled"},
		}
		env := newTestEnv(t, pod)

		payload, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "web", Previous: true})
		require.NoError(t, err)
		assert.True(t, payload.Previous)
	})
}

func TestGetLogsPodNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod", Pod: "missing"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGetLogsValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.GetLogs(context.Background(), LogRequest{Pod: "web"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.client.GetLogs(context.Background(), LogRequest{Namespace: "prod"})
	assert.Equal(t, KindValidation, KindOf(err))

	assert.Empty(t, env.kube["alpha"].Actions())
}

func TestReadLines(t *testing.T) {
	lines, n, cut, err := readLines(strings.NewReader("first\nsecond\n\nfourth"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "", "fourth"}, lines)
	assert.Equal(t, int64(len("first\nsecond\n\nfourth")), n)
	assert.False(t, cut)

	lines, n, cut, err = readLines(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.NotNil(t, lines)
	assert.Equal(t, int64(0), n)
	assert.False(t, cut)
}

func TestReadLinesOverlongLine(t *testing.T) {
	long := strings.Repeat("x", 2*maxLogLineBytes)
	input := "before\n" + long + "\nafter\n"

	lines, n, cut, err := readLines(strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, cut)
	assert.Equal(t, int64(len(input)), n)
	require.Len(t, lines, 3)
	assert.Equal(t, "before", lines[0])
	assert.Len(t, lines[1], maxLogLineBytes)
	assert.Equal(t, "after", lines[2])
}

func TestReadLinesCRLF(t *testing.T) {
	lines, _, cut, err := readLines(strings.NewReader("one\r\ntwo\r\n"))
	require.NoError(t, err)
	assert.False(t, cut)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestEffectiveTailRespectsSmallCap(t *testing.T) {
	c := &kubernetesClient{logTailCap: 10}

	tail, clamped := c.effectiveTail(nil)
	assert.Equal(t, int64(10), tail)
	assert.False(t, clamped)

	tail, clamped = c.effectiveTail(int64Ptr(50))
	assert.Equal(t, int64(10), tail)
	assert.True(t, clamped)
}
