package k8s

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/kubectl/pkg/util/podutils"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
)

// formatAge renders the time elapsed since created as XdYh, XhYm or Xm.
func formatAge(created, now time.Time) string {
	if created.IsZero() {
		return "unknown"
	}
	d := now.Sub(created)
	if d < 0 {
		d = 0
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func podSummary(pod *corev1.Pod, now time.Time) PodSummary {
	if pod == nil {
		return PodSummary{}
	}

	readyContainers := 0
	var restarts int32
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			readyContainers++
		}
		restarts += cs.RestartCount
	}

	created := pod.CreationTimestamp.Time
	return PodSummary{
		Name:            pod.Name,
		Namespace:       pod.Namespace,
		Phase:           string(pod.Status.Phase),
		Ready:           podutils.IsPodReady(pod),
		ReadyContainers: readyContainers,
		TotalContainers: len(pod.Spec.Containers),
		RestartCount:    restarts,
		Age:             formatAge(created, now),
		CreatedAt:       created,
		NodeName:        pod.Spec.NodeName,
		PodIP:           pod.Status.PodIP,
		Labels:          pod.Labels,
	}
}

func podStatistics(pods []PodSummary) PodStatistics {
	stats := PodStatistics{
		Total:   len(pods),
		ByPhase: make(map[string]int),
	}
	for _, p := range pods {
		phase := p.Phase
		if phase == "" {
			phase = string(corev1.PodUnknown)
		}
		stats.ByPhase[phase]++
		if p.Ready {
			stats.ReadyPods++
		}
		stats.TotalRestarts += int64(p.RestartCount)
	}
	if stats.Total > 0 {
		stats.ReadyPercentage = round2(float64(stats.ReadyPods) / float64(stats.Total) * 100)
	}
	return stats
}

func podDetail(contextName string, pod *corev1.Pod, events []corev1.Event, now time.Time) *PodDetail {
	detail := &PodDetail{
		Context:      contextName,
		PodSummary:   podSummary(pod, now),
		Containers:   []ContainerDetail{},
		VolumeMounts: []VolumeMount{},
		Events:       podEvents(events),
	}
	if pod == nil {
		return detail
	}

	detail.HostIP = pod.Status.HostIP
	detail.QOSClass = string(pod.Status.QOSClass)
	detail.ServiceAccount = pod.Spec.ServiceAccountName
	for _, ref := range pod.OwnerReferences {
		detail.Owners = append(detail.Owners, OwnerReference{Kind: ref.Kind, Name: ref.Name})
	}

	statuses := make(map[string]corev1.ContainerStatus, len(pod.Status.ContainerStatuses)+len(pod.Status.InitContainerStatuses))
	for _, cs := range pod.Status.InitContainerStatuses {
		statuses["init/"+cs.Name] = cs
	}
	for _, cs := range pod.Status.ContainerStatuses {
		statuses[cs.Name] = cs
	}

	for _, c := range pod.Spec.InitContainers {
		cs, ok := statuses["init/"+c.Name]
		detail.Containers = append(detail.Containers, containerDetail(c, cs, ok, true))
		detail.VolumeMounts = append(detail.VolumeMounts, volumeMounts(c)...)
	}
	for _, c := range pod.Spec.Containers {
		cs, ok := statuses[c.Name]
		detail.Containers = append(detail.Containers, containerDetail(c, cs, ok, false))
		detail.VolumeMounts = append(detail.VolumeMounts, volumeMounts(c)...)
	}

	for _, v := range pod.Spec.Volumes {
		detail.Volumes = append(detail.Volumes, Volume{Name: v.Name, Type: volumeType(v.VolumeSource)})
	}

	for _, c := range pod.Status.Conditions {
		detail.Conditions = append(detail.Conditions, Condition{
			Type:    string(c.Type),
			Status:  string(c.Status),
			Reason:  c.Reason,
			Message: c.Message,
		})
	}

	return detail
}

func containerDetail(c corev1.Container, cs corev1.ContainerStatus, hasStatus, init bool) ContainerDetail {
	detail := ContainerDetail{
		Name:            c.Name,
		Image:           c.Image,
		State:           "unknown",
		Init:            init,
		Command:         c.Command,
		Args:            c.Args,
		WorkingDir:      c.WorkingDir,
		Ports:           containerPorts(c.Ports),
		Env:             envVars(c.Env),
		Resources:       resourceRequirements(c.Resources),
		SecurityContext: securityContext(c.SecurityContext),
		LivenessProbe:   probe(c.LivenessProbe),
		ReadinessProbe:  probe(c.ReadinessProbe),
	}
	if !hasStatus {
		return detail
	}

	detail.Ready = cs.Ready
	detail.RestartCount = cs.RestartCount
	switch {
	case cs.State.Running != nil:
		detail.State = "running"
	case cs.State.Waiting != nil:
		detail.State = "waiting"
		detail.StateReason = cs.State.Waiting.Reason
	case cs.State.Terminated != nil:
		detail.State = "terminated"
		detail.StateReason = cs.State.Terminated.Reason
	}
	if t := cs.LastTerminationState.Terminated; t != nil {
		detail.LastTerminationReason = t.Reason
	}
	return detail
}

func containerPorts(ports []corev1.ContainerPort) []ContainerPort {
	if len(ports) == 0 {
		return nil
	}
	out := make([]ContainerPort, 0, len(ports))
	for _, p := range ports {
		protocol := string(p.Protocol)
		if protocol == "" {
			protocol = string(corev1.ProtocolTCP)
		}
		out = append(out, ContainerPort{
			Name:          p.Name,
			ContainerPort: p.ContainerPort,
			Protocol:      protocol,
			HostPort:      p.HostPort,
		})
	}
	return out
}

func envVars(env []corev1.EnvVar) []EnvVar {
	if len(env) == 0 {
		return nil
	}
	out := make([]EnvVar, 0, len(env))
	for _, e := range env {
		v := EnvVar{Name: e.Name, Value: e.Value}
		if e.ValueFrom != nil && e.Value == "" {
			v.ValueFrom = envVarSource(e.ValueFrom)
		}
		out = append(out, v)
	}
	return out
}

func envVarSource(src *corev1.EnvVarSource) *EnvVarSource {
	switch {
	case src.ConfigMapKeyRef != nil:
		return &EnvVarSource{Type: "configMapKeyRef", Name: src.ConfigMapKeyRef.Name, Key: src.ConfigMapKeyRef.Key}
	case src.SecretKeyRef != nil:
		return &EnvVarSource{Type: "secretKeyRef", Name: src.SecretKeyRef.Name, Key: src.SecretKeyRef.Key}
	case src.FieldRef != nil:
		return &EnvVarSource{Type: "fieldRef", FieldPath: src.FieldRef.FieldPath}
	case src.ResourceFieldRef != nil:
		return &EnvVarSource{Type: "resourceFieldRef", Resource: src.ResourceFieldRef.Resource}
	}
	return &EnvVarSource{Type: "unknown"}
}

func resourceList(list corev1.ResourceList) map[string]string {
	if len(list) == 0 {
		return nil
	}
	out := make(map[string]string, len(list))
	for name, q := range list {
		out[string(name)] = q.String()
	}
	return out
}

func resourceRequirements(r corev1.ResourceRequirements) *ResourceRequirements {
	if len(r.Requests) == 0 && len(r.Limits) == 0 {
		return nil
	}
	return &ResourceRequirements{
		Requests: resourceList(r.Requests),
		Limits:   resourceList(r.Limits),
	}
}

func securityContext(sc *corev1.SecurityContext) *SecurityContext {
	if sc == nil {
		return nil
	}
	out := &SecurityContext{
		RunAsUser:                sc.RunAsUser,
		RunAsGroup:               sc.RunAsGroup,
		RunAsNonRoot:             sc.RunAsNonRoot,
		Privileged:               sc.Privileged,
		ReadOnlyRootFilesystem:   sc.ReadOnlyRootFilesystem,
		AllowPrivilegeEscalation: sc.AllowPrivilegeEscalation,
	}
	if caps := sc.Capabilities; caps != nil {
		for _, c := range caps.Add {
			out.CapabilitiesAdd = append(out.CapabilitiesAdd, string(c))
		}
		for _, c := range caps.Drop {
			out.CapabilitiesDrop = append(out.CapabilitiesDrop, string(c))
		}
	}
	return out
}

func probe(p *corev1.Probe) *Probe {
	if p == nil {
		return nil
	}
	out := &Probe{
		Type:                "unknown",
		InitialDelaySeconds: p.InitialDelaySeconds,
		PeriodSeconds:       p.PeriodSeconds,
		TimeoutSeconds:      p.TimeoutSeconds,
		FailureThreshold:    p.FailureThreshold,
		SuccessThreshold:    p.SuccessThreshold,
	}
	switch h := p.ProbeHandler; {
	case h.HTTPGet != nil:
		out.Type = "httpGet"
		out.Path = h.HTTPGet.Path
		out.Port = h.HTTPGet.Port.String()
		out.Scheme = string(h.HTTPGet.Scheme)
	case h.TCPSocket != nil:
		out.Type = "tcpSocket"
		out.Port = h.TCPSocket.Port.String()
	case h.Exec != nil:
		out.Type = "exec"
		out.Command = h.Exec.Command
	case h.GRPC != nil:
		out.Type = "grpc"
		out.Port = strconv.Itoa(int(h.GRPC.Port))
	}
	return out
}

func volumeMounts(c corev1.Container) []VolumeMount {
	mounts := make([]VolumeMount, 0, len(c.VolumeMounts))
	for _, m := range c.VolumeMounts {
		mounts = append(mounts, VolumeMount{
			Container: c.Name,
			Name:      m.Name,
			MountPath: m.MountPath,
			ReadOnly:  m.ReadOnly,
		})
	}
	return mounts
}

func volumeType(src corev1.VolumeSource) string {
	switch {
	case src.ConfigMap != nil:
		return "configMap"
	case src.Secret != nil:
		return "secret"
	case src.EmptyDir != nil:
		return "emptyDir"
	case src.PersistentVolumeClaim != nil:
		return "persistentVolumeClaim"
	case src.HostPath != nil:
		return "hostPath"
	case src.Projected != nil:
		return "projected"
	case src.DownwardAPI != nil:
		return "downwardAPI"
	case src.CSI != nil:
		return "csi"
	case src.Ephemeral != nil:
		return "ephemeral"
	case src.NFS != nil:
		return "nfs"
	default:
		return "other"
	}
}

// eventTime picks the most specific timestamp an event carries.
func eventTime(e corev1.Event) time.Time {
	switch {
	case !e.LastTimestamp.IsZero():
		return e.LastTimestamp.Time
	case !e.EventTime.IsZero():
		return e.EventTime.Time
	case !e.FirstTimestamp.IsZero():
		return e.FirstTimestamp.Time
	default:
		return e.CreationTimestamp.Time
	}
}

// podEvents orders events newest first and keeps at most MaxPodEvents.
func podEvents(events []corev1.Event) []EventInfo {
	infos := make([]EventInfo, 0, len(events))
	for _, e := range events {
		infos = append(infos, EventInfo{
			Type:      e.Type,
			Reason:    e.Reason,
			Message:   e.Message,
			Count:     e.Count,
			Timestamp: eventTime(e),
		})
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Timestamp.After(infos[j].Timestamp) })
	if len(infos) > MaxPodEvents {
		infos = infos[:MaxPodEvents]
	}
	return infos
}

func deploymentSummary(d *appsv1.Deployment, now time.Time) DeploymentSummary {
	if d == nil {
		return DeploymentSummary{}
	}

	desired := int32(1)
	if d.Spec.Replicas != nil {
		desired = *d.Spec.Replicas
	}

	summary := DeploymentSummary{
		Name:              d.Name,
		Namespace:         d.Namespace,
		DesiredReplicas:   desired,
		CurrentReplicas:   d.Status.Replicas,
		ReadyReplicas:     d.Status.ReadyReplicas,
		AvailableReplicas: d.Status.AvailableReplicas,
		UpdatedReplicas:   d.Status.UpdatedReplicas,
		Strategy:          string(d.Spec.Strategy.Type),
		Age:               formatAge(d.CreationTimestamp.Time, now),
		CreatedAt:         d.CreationTimestamp.Time,
	}
	if summary.Strategy == "" {
		summary.Strategy = string(appsv1.RollingUpdateDeploymentStrategyType)
	}

	failed := false
	for _, c := range d.Status.Conditions {
		summary.Conditions = append(summary.Conditions, Condition{
			Type:    string(c.Type),
			Status:  string(c.Status),
			Reason:  c.Reason,
			Message: c.Message,
		})
		if deploymentConditionFailed(c) {
			failed = true
		}
	}
	summary.Healthy = summary.ReadyReplicas == desired && !failed

	return summary
}

func deploymentStatus(kubeContext string, d *appsv1.Deployment, now time.Time) *DeploymentStatus {
	summary := deploymentSummary(d, now)
	status := &DeploymentStatus{
		Context:             kubeContext,
		DeploymentSummary:   summary,
		Generation:          d.Generation,
		ObservedGeneration:  d.Status.ObservedGeneration,
		UnavailableReplicas: d.Status.UnavailableReplicas,
		Images:              []string{},
	}
	status.RolloutComplete = status.ObservedGeneration >= status.Generation &&
		summary.UpdatedReplicas == summary.DesiredReplicas &&
		summary.AvailableReplicas == summary.DesiredReplicas &&
		summary.CurrentReplicas == summary.DesiredReplicas

	if d.Spec.Selector != nil && len(d.Spec.Selector.MatchLabels) > 0 {
		status.Selector = d.Spec.Selector.MatchLabels
	}
	for _, c := range d.Spec.Template.Spec.Containers {
		status.Images = append(status.Images, c.Image)
	}
	return status
}

func deploymentConditionFailed(c appsv1.DeploymentCondition) bool {
	switch c.Type {
	case appsv1.DeploymentReplicaFailure:
		return c.Status == corev1.ConditionTrue
	case appsv1.DeploymentAvailable, appsv1.DeploymentProgressing:
		return c.Status == corev1.ConditionFalse
	}
	return false
}

// nodeRoles returns the sorted, deduplicated roles of a node, or [none].
func nodeRoles(labels map[string]string) []string {
	seen := make(map[string]struct{})
	for key, value := range labels {
		if role, ok := strings.CutPrefix(key, NodeRoleLabelPrefix); ok && role != "" {
			seen[role] = struct{}{}
		}
		if key == LegacyNodeRoleLabel && value != "" {
			seen[value] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return []string{NoNodeRole}
	}

	roles := make([]string, 0, len(seen))
	for role := range seen {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func isControlPlane(roles []string) bool {
	for _, role := range roles {
		if role == "control-plane" || role == "master" {
			return true
		}
	}
	return false
}

func nodeStatus(node *corev1.Node) string {
	for _, c := range node.Status.Conditions {
		if c.Type != corev1.NodeReady {
			continue
		}
		switch c.Status {
		case corev1.ConditionTrue:
			return NodeStatusReady
		case corev1.ConditionFalse:
			return NodeStatusNotReady
		}
		return NodeStatusUnknown
	}
	return NodeStatusUnknown
}

func quantityString(list corev1.ResourceList, name corev1.ResourceName) string {
	q, ok := list[name]
	if !ok {
		return ""
	}
	return q.String()
}

func nodeResources(list corev1.ResourceList) NodeResources {
	return NodeResources{
		CPU:              quantityString(list, corev1.ResourceCPU),
		Memory:           quantityString(list, corev1.ResourceMemory),
		Pods:             quantityString(list, corev1.ResourcePods),
		EphemeralStorage: quantityString(list, corev1.ResourceEphemeralStorage),
	}
}

func nodeSummary(node *corev1.Node, now time.Time) NodeSummary {
	if node == nil {
		return NodeSummary{Roles: []string{NoNodeRole}, Status: NodeStatusUnknown}
	}

	summary := NodeSummary{
		Name:           node.Name,
		Roles:          nodeRoles(node.Labels),
		Status:         nodeStatus(node),
		Unschedulable:  node.Spec.Unschedulable,
		Capacity:       nodeResources(node.Status.Capacity),
		Allocatable:    nodeResources(node.Status.Allocatable),
		KubeletVersion: node.Status.NodeInfo.KubeletVersion,
		Age:            formatAge(node.CreationTimestamp.Time, now),
		CreatedAt:      node.CreationTimestamp.Time,
		SystemInfo: NodeSystemInfo{
			OSImage:          node.Status.NodeInfo.OSImage,
			KernelVersion:    node.Status.NodeInfo.KernelVersion,
			ContainerRuntime: node.Status.NodeInfo.ContainerRuntimeVersion,
			Architecture:     node.Status.NodeInfo.Architecture,
			OperatingSystem:  node.Status.NodeInfo.OperatingSystem,
		},
	}

	for _, addr := range node.Status.Addresses {
		if addr.Type == corev1.NodeInternalIP {
			summary.InternalIP = addr.Address
			break
		}
	}

	for _, c := range node.Status.Conditions {
		summary.Conditions = append(summary.Conditions, Condition{
			Type:    string(c.Type),
			Status:  string(c.Status),
			Reason:  c.Reason,
			Message: c.Message,
		})
	}

	return summary
}

// clusterSummary aggregates node counts and cpu/memory totals.
func clusterSummary(nodes []corev1.Node, summaries []NodeSummary) ClusterSummary {
	summary := ClusterSummary{TotalNodes: len(nodes)}

	var capCPU, capMem, allocCPU, allocMem resource.Quantity
	for i := range nodes {
		addQuantity(&capCPU, nodes[i].Status.Capacity, corev1.ResourceCPU)
		addQuantity(&capMem, nodes[i].Status.Capacity, corev1.ResourceMemory)
		addQuantity(&allocCPU, nodes[i].Status.Allocatable, corev1.ResourceCPU)
		addQuantity(&allocMem, nodes[i].Status.Allocatable, corev1.ResourceMemory)
	}
	for _, s := range summaries {
		if s.Status == NodeStatusReady {
			summary.ReadyNodes++
		}
		if isControlPlane(s.Roles) {
			summary.ControlPlaneNodes++
		} else {
			summary.WorkerNodes++
		}
	}

	summary.Capacity = NodeResources{CPU: capCPU.String(), Memory: capMem.String()}
	summary.Allocatable = NodeResources{CPU: allocCPU.String(), Memory: allocMem.String()}
	return summary
}

func addQuantity(total *resource.Quantity, list corev1.ResourceList, name corev1.ResourceName) {
	if q, ok := list[name]; ok {
		total.Add(q)
	}
}

func nodeUsage(m metricsv1beta1.NodeMetrics, allocatable corev1.ResourceList) *NodeUsage {
	cpu := m.Usage[corev1.ResourceCPU]
	mem := m.Usage[corev1.ResourceMemory]

	usage := &NodeUsage{
		CPU:    cpu.String(),
		Memory: mem.String(),
	}
	if alloc, ok := allocatable[corev1.ResourceCPU]; ok && alloc.MilliValue() > 0 {
		usage.CPUPercent = round2(float64(cpu.MilliValue()) / float64(alloc.MilliValue()) * 100)
	}
	if alloc, ok := allocatable[corev1.ResourceMemory]; ok && alloc.Value() > 0 {
		usage.MemoryPercent = round2(float64(mem.Value()) / float64(alloc.Value()) * 100)
	}
	return usage
}
