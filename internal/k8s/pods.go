package k8s

import (
	"context"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
)

// ListPods returns pods ordered by namespace then name.
func (c *kubernetesClient) ListPods(ctx context.Context, req ListPodsRequest) (*PodList, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return observe(ctx, c, "list", "pods", req.Namespace, func(ctx context.Context) (*PodList, error) {
		h, err := c.handle(ctx, req.Context)
		if err != nil {
			return nil, err
		}

		c.logOperation("list", h.Context, req.Namespace, "pods", "")
		id := Ident{Context: h.Context, Namespace: req.Namespace, Resource: "pod"}

		list, err := read(ctx, c, "list", "pods", func(ctx context.Context) (*corev1.PodList, error) {
			l, err := h.Kube.CoreV1().Pods(req.Namespace).List(ctx, metav1.ListOptions{LabelSelector: req.LabelSelector})
			return l, Normalize(err, id)
		})
		if err != nil {
			return nil, err
		}

		sortPods(list.Items)
		now := c.now()
		pods := make([]PodSummary, 0, len(list.Items))
		for i := range list.Items {
			pods = append(pods, podSummary(&list.Items[i], now))
		}

		return &PodList{
			Context:    h.Context,
			Namespace:  req.Namespace,
			Count:      len(pods),
			Pods:       pods,
			Statistics: podStatistics(pods),
		}, nil
	})
}

// GetPodDetail returns a pod with its containers, mounts and most recent events.
func (c *kubernetesClient) GetPodDetail(ctx context.Context, req PodRequest) (*PodDetail, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Namespace == "" {
		req.Namespace = c.defaultNamespace
	}

	return observe(ctx, c, "get", "pods", req.Namespace, func(ctx context.Context) (*PodDetail, error) {
		h, err := c.handle(ctx, req.Context)
		if err != nil {
			return nil, err
		}

		c.logOperation("get", h.Context, req.Namespace, "pods", req.Name)

		pod, err := c.getPod(ctx, h, req.Namespace, req.Name)
		if err != nil {
			return nil, err
		}

		events, err := c.podEvents(ctx, h, pod)
		if err != nil {
			return nil, err
		}

		return podDetail(h.Context, pod, events, c.now()), nil
	})
}

func (c *kubernetesClient) getPod(ctx context.Context, h *ClientHandle, namespace, name string) (*corev1.Pod, error) {
	id := Ident{Context: h.Context, Namespace: namespace, Resource: "pod", Name: name}
	return read(ctx, c, "get", "pods", func(ctx context.Context) (*corev1.Pod, error) {
		pod, err := h.Kube.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
		return pod, Normalize(err, id)
	})
}

// podEvents lists the events whose involved object is pod.
func (c *kubernetesClient) podEvents(ctx context.Context, h *ClientHandle, pod *corev1.Pod) ([]corev1.Event, error) {
	id := Ident{Context: h.Context, Namespace: pod.Namespace, Resource: "event", Name: pod.Name}
	selector := fields.OneTermEqualSelector("involvedObject.name", pod.Name).String()

	list, err := read(ctx, c, "list", "events", func(ctx context.Context) (*corev1.EventList, error) {
		l, err := h.Kube.CoreV1().Events(pod.Namespace).List(ctx, metav1.ListOptions{FieldSelector: selector})
		return l, Normalize(err, id)
	})
	if err != nil {
		return nil, err
	}

	events := make([]corev1.Event, 0, len(list.Items))
	for _, e := range list.Items {
		if e.InvolvedObject.Name != pod.Name {
			continue
		}
		if e.InvolvedObject.Kind != "" && e.InvolvedObject.Kind != "Pod" {
			continue
		}
		if e.InvolvedObject.UID != "" && pod.UID != "" && e.InvolvedObject.UID != pod.UID {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func sortPods(pods []corev1.Pod) {
	sort.Slice(pods, func(i, j int) bool {
		if pods[i].Namespace != pods[j].Namespace {
			return pods[i].Namespace < pods[j].Namespace
		}
		return pods[i].Name < pods[j].Name
	})
}
