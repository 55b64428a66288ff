package k8s

import (
	"bufio"
	"context"
	"io"

	corev1 "k8s.io/api/core/v1"
)

const maxLogLineBytes = 1024 * 1024

// GetLogs returns the trailing log lines of a pod container.
func (c *kubernetesClient) GetLogs(ctx context.Context, req LogRequest) (*LogPayload, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return observe(ctx, c, "logs", "pods", req.Namespace, func(ctx context.Context) (*LogPayload, error) {
		h, err := c.handle(ctx, req.Context)
		if err != nil {
			return nil, err
		}

		c.logOperation("logs", h.Context, req.Namespace, "pods", req.Pod)
		id := Ident{Context: h.Context, Namespace: req.Namespace, Resource: "pod", Name: req.Pod}

		pod, err := c.getPod(ctx, h, req.Namespace, req.Pod)
		if err != nil {
			return nil, err
		}

		container, err := selectContainer(pod, req.Container, id)
		if err != nil {
			return nil, err
		}

		if req.Previous {
			if err := checkPreviousInstance(pod, container, id); err != nil {
				return nil, err
			}
		}

		tail, clamped := c.effectiveTail(req.TailLines)
		limitBytes := c.logLimitBytes
		opts := &corev1.PodLogOptions{
			Container:  container,
			Previous:   req.Previous,
			TailLines:  &tail,
			LimitBytes: &limitBytes,
		}

		payload, err := read(ctx, c, "logs", "pods", func(ctx context.Context) (*LogPayload, error) {
			stream, err := h.Kube.CoreV1().Pods(req.Namespace).GetLogs(req.Pod, opts).Stream(ctx)
			if err != nil {
				return nil, Normalize(err, id)
			}
			defer stream.Close()

			lines, n, cut, err := readLines(stream)
			if err != nil {
				return nil, Normalize(err, id)
			}
			return &LogPayload{
				Lines:     lines,
				Truncated: cut || n >= limitBytes || int64(len(lines)) < tail,
			}, nil
		})
		if err != nil {
			return nil, err
		}

		payload.Context = h.Context
		payload.Namespace = req.Namespace
		payload.Pod = req.Pod
		payload.Container = container
		payload.Previous = req.Previous
		payload.TailLines = tail
		payload.Truncated = payload.Truncated || clamped
		payload.LineCount = len(payload.Lines)
		return payload, nil
	})
}

// effectiveTail applies the default and the cap to a requested tail.
func (c *kubernetesClient) effectiveTail(requested *int64) (int64, bool) {
	if requested == nil || *requested <= 0 {
		tail := DefaultLogTailLines
		if tail > c.logTailCap {
			return c.logTailCap, false
		}
		return tail, false
	}
	if *requested > c.logTailCap {
		return c.logTailCap, true
	}
	return *requested, false
}

// selectContainer returns the container to read logs from.
func selectContainer(pod *corev1.Pod, requested string, id Ident) (string, error) {
	names := make([]string, 0, len(pod.Spec.Containers))
	for _, c := range pod.Spec.Containers {
		names = append(names, c.Name)
	}

	if requested == "" {
		switch len(names) {
		case 0:
			return "", NewValidationError(id, "pod has no containers")
		case 1:
			return names[0], nil
		default:
			return "", &Error{
				Kind:       KindAmbiguousContainer,
				Ident:      id,
				Message:    "pod has multiple containers, one of them must be named",
				Containers: names,
			}
		}
	}

	for _, name := range names {
		if name == requested {
			return name, nil
		}
	}
	for _, c := range pod.Spec.InitContainers {
		if c.Name == requested {
			return c.Name, nil
		}
	}
	return "", NewValidationError(id, "container %q not found in pod, available containers: %v", requested, names)
}

// checkPreviousInstance fails with NotFound when container never terminated.
func checkPreviousInstance(pod *corev1.Pod, container string, id Ident) error {
	statuses := append([]corev1.ContainerStatus{}, pod.Status.ContainerStatuses...)
	statuses = append(statuses, pod.Status.InitContainerStatuses...)

	for _, cs := range statuses {
		if cs.Name != container {
			continue
		}
		if cs.RestartCount > 0 && cs.LastTerminationState.Terminated != nil {
			return nil
		}
		break
	}
	return newError(KindNotFound, id, nil, "container %q has no previous terminated instance", container)
}

// readLines splits r into lines and reports the number of bytes read. Lines
// longer than maxLogLineBytes are cut at that length and reported through cut.
func readLines(r io.Reader) (lines []string, n int64, cut bool, err error) {
	counter := &countingReader{r: r}
	br := bufio.NewReaderSize(counter, 64*1024)

	lines = []string{}
	var line []byte
	overflow := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, counter.n, cut, err
		}

		if room := maxLogLineBytes - len(line); len(chunk) > room {
			line = append(line, chunk[:room]...)
			overflow = true
		} else {
			line = append(line, chunk...)
		}
		if isPrefix {
			continue
		}

		lines = append(lines, string(line))
		line = line[:0]
		cut = cut || overflow
		overflow = false
	}
	return lines, counter.n, cut, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
