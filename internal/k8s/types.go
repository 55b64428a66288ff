package k8s

import (
	"math"
	"time"

	"k8s.io/apimachinery/pkg/labels"
)

// ContextInfo represents information about a Kubernetes context.
type ContextInfo struct {
	Name      string `json:"name"`
	Cluster   string `json:"cluster"`
	User      string `json:"user"`
	Namespace string `json:"namespace"`
	Current   bool   `json:"current"`
}

// ListPodsRequest selects pods to list. An empty namespace lists all namespaces.
type ListPodsRequest struct {
	Context       string
	Namespace     string
	LabelSelector string
}

// Validate checks the request before any network call.
func (r ListPodsRequest) Validate() error {
	return validateSelector(Ident{Context: r.Context, Namespace: r.Namespace, Resource: "pod"}, r.LabelSelector)
}

// PodRequest identifies a single pod. An empty namespace means "default".
type PodRequest struct {
	Context   string
	Namespace string
	Name      string
}

// Validate checks the request before any network call.
func (r PodRequest) Validate() error {
	if r.Name == "" {
		return NewValidationError(Ident{Context: r.Context, Namespace: r.Namespace, Resource: "pod"}, "pod name is required")
	}
	return nil
}

// ListDeploymentsRequest selects deployments to list. An empty namespace lists all namespaces.
type ListDeploymentsRequest struct {
	Context       string
	Namespace     string
	LabelSelector string
}

// Validate checks the request before any network call.
func (r ListDeploymentsRequest) Validate() error {
	return validateSelector(Ident{Context: r.Context, Namespace: r.Namespace, Resource: "deployment"}, r.LabelSelector)
}

// DeploymentRequest identifies a single deployment. An empty namespace selects
// the configured default namespace.
type DeploymentRequest struct {
	Context   string
	Namespace string
	Name      string
}

// Validate checks the request before any network call.
func (r DeploymentRequest) Validate() error {
	if r.Name == "" {
		return NewValidationError(Ident{Context: r.Context, Namespace: r.Namespace, Resource: "deployment"}, "deployment name is required")
	}
	return nil
}

// ListNodesRequest selects the nodes of a context.
type ListNodesRequest struct {
	Context      string
	IncludeUsage bool
}

// Validate checks the request before any network call.
func (r ListNodesRequest) Validate() error {
	return nil
}

// LogRequest selects the log lines to read from a pod container.
type LogRequest struct {
	Context   string
	Namespace string
	Pod       string
	Container string
	// TailLines is the number of trailing lines to return. Nil or non-positive
	// values select DefaultLogTailLines.
	TailLines *int64
	Previous  bool
}

// Validate checks the request before any network call.
func (r LogRequest) Validate() error {
	id := Ident{Context: r.Context, Namespace: r.Namespace, Resource: "pod", Name: r.Pod}
	if r.Namespace == "" {
		return NewValidationError(id, "namespace is required")
	}
	if r.Pod == "" {
		return NewValidationError(id, "pod name is required")
	}
	return nil
}

// ScaleRequest sets the desired replica count of a deployment.
type ScaleRequest struct {
	Context   string
	Namespace string
	Name      string
	Replicas  int64
}

// Validate checks the request before any network call.
func (r ScaleRequest) Validate() error {
	id := Ident{Context: r.Context, Namespace: r.Namespace, Resource: "deployment", Name: r.Name}
	if r.Namespace == "" {
		return NewValidationError(id, "namespace is required")
	}
	if r.Name == "" {
		return NewValidationError(id, "deployment name is required")
	}
	if r.Replicas < 0 || r.Replicas > math.MaxInt32 {
		return NewValidationError(id, "replicas must be between 0 and %d, got %d", math.MaxInt32, r.Replicas)
	}
	return nil
}

// RolloutRequest triggers a rolling restart of a deployment.
type RolloutRequest struct {
	Context   string
	Namespace string
	Name      string
}

// Validate checks the request before any network call.
func (r RolloutRequest) Validate() error {
	id := Ident{Context: r.Context, Namespace: r.Namespace, Resource: "deployment", Name: r.Name}
	if r.Namespace == "" {
		return NewValidationError(id, "namespace is required")
	}
	if r.Name == "" {
		return NewValidationError(id, "deployment name is required")
	}
	return nil
}

func validateSelector(id Ident, selector string) error {
	if selector == "" {
		return nil
	}
	if _, err := labels.Parse(selector); err != nil {
		return &Error{Kind: KindValidation, Ident: id, Message: "invalid label selector " + selector, Err: err}
	}
	return nil
}

// PodSummary is the list view of a pod.
type PodSummary struct {
	Name            string            `json:"name"`
	Namespace       string            `json:"namespace"`
	Phase           string            `json:"phase"`
	Ready           bool              `json:"ready"`
	ReadyContainers int               `json:"readyContainers"`
	TotalContainers int               `json:"totalContainers"`
	RestartCount    int32             `json:"restartCount"`
	Age             string            `json:"age"`
	CreatedAt       time.Time         `json:"createdAt"`
	NodeName        string            `json:"nodeName,omitempty"`
	PodIP           string            `json:"podIP,omitempty"`
	Labels          map[string]string `json:"labels,omitempty"`
}

// PodStatistics aggregates a pod list.
type PodStatistics struct {
	Total           int            `json:"total"`
	ByPhase         map[string]int `json:"byPhase"`
	ReadyPods       int            `json:"readyPods"`
	TotalRestarts   int64          `json:"totalRestarts"`
	ReadyPercentage float64        `json:"readyPercentage"`
}

// PodList is the result of ListPods.
type PodList struct {
	Context    string        `json:"context"`
	Namespace  string        `json:"namespace"`
	Count      int           `json:"count"`
	Pods       []PodSummary  `json:"pods"`
	Statistics PodStatistics `json:"statistics"`
}

// ContainerDetail describes one container of a pod.
type ContainerDetail struct {
	Name                  string `json:"name"`
	Image                 string `json:"image"`
	Ready                 bool   `json:"ready"`
	RestartCount          int32  `json:"restartCount"`
	State                 string `json:"state"`
	StateReason           string `json:"stateReason,omitempty"`
	LastTerminationReason string `json:"lastTerminationReason,omitempty"`
	Init                  bool   `json:"init,omitempty"`

	Command         []string              `json:"command,omitempty"`
	Args            []string              `json:"args,omitempty"`
	WorkingDir      string                `json:"workingDir,omitempty"`
	Ports           []ContainerPort       `json:"ports,omitempty"`
	Env             []EnvVar              `json:"env,omitempty"`
	Resources       *ResourceRequirements `json:"resources,omitempty"`
	SecurityContext *SecurityContext      `json:"securityContext,omitempty"`
	LivenessProbe   *Probe                `json:"livenessProbe,omitempty"`
	ReadinessProbe  *Probe                `json:"readinessProbe,omitempty"`
}

// ContainerPort is a port exposed by a container.
type ContainerPort struct {
	Name          string `json:"name,omitempty"`
	ContainerPort int32  `json:"containerPort"`
	Protocol      string `json:"protocol"`
	HostPort      int32  `json:"hostPort,omitempty"`
}

// EnvVar is a container environment variable. Variables sourced from
// another object carry the reference in ValueFrom, never the resolved value.
type EnvVar struct {
	Name      string        `json:"name"`
	Value     string        `json:"value,omitempty"`
	ValueFrom *EnvVarSource `json:"valueFrom,omitempty"`
}

// EnvVarSource names where an environment variable is read from. Type is
// configMapKeyRef, secretKeyRef, fieldRef, resourceFieldRef or unknown.
type EnvVarSource struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	Key       string `json:"key,omitempty"`
	FieldPath string `json:"fieldPath,omitempty"`
	Resource  string `json:"resource,omitempty"`
}

// ResourceRequirements holds requests and limits in Kubernetes notation.
type ResourceRequirements struct {
	Requests map[string]string `json:"requests,omitempty"`
	Limits   map[string]string `json:"limits,omitempty"`
}

// SecurityContext is the subset of a container security context worth
// reviewing during triage.
type SecurityContext struct {
	RunAsUser                *int64   `json:"runAsUser,omitempty"`
	RunAsGroup               *int64   `json:"runAsGroup,omitempty"`
	RunAsNonRoot             *bool    `json:"runAsNonRoot,omitempty"`
	Privileged               *bool    `json:"privileged,omitempty"`
	ReadOnlyRootFilesystem   *bool    `json:"readOnlyRootFilesystem,omitempty"`
	AllowPrivilegeEscalation *bool    `json:"allowPrivilegeEscalation,omitempty"`
	CapabilitiesAdd          []string `json:"capabilitiesAdd,omitempty"`
	CapabilitiesDrop         []string `json:"capabilitiesDrop,omitempty"`
}

// Probe describes a liveness or readiness probe. Type is httpGet, tcpSocket,
// exec, grpc or unknown.
type Probe struct {
	Type                string   `json:"type"`
	Path                string   `json:"path,omitempty"`
	Port                string   `json:"port,omitempty"`
	Scheme              string   `json:"scheme,omitempty"`
	Command             []string `json:"command,omitempty"`
	InitialDelaySeconds int32    `json:"initialDelaySeconds"`
	PeriodSeconds       int32    `json:"periodSeconds"`
	TimeoutSeconds      int32    `json:"timeoutSeconds"`
	FailureThreshold    int32    `json:"failureThreshold"`
	SuccessThreshold    int32    `json:"successThreshold"`
}

// VolumeMount is a volume mounted into a container.
type VolumeMount struct {
	Container string `json:"container"`
	Name      string `json:"name"`
	MountPath string `json:"mountPath"`
	ReadOnly  bool   `json:"readOnly"`
}

// Volume is a pod volume and the kind of its source.
type Volume struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Condition is a status condition of a pod, deployment or node.
type Condition struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// EventInfo is a Kubernetes event attached to an object.
type EventInfo struct {
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	Count     int32     `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OwnerReference names the controller of an object.
type OwnerReference struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// PodDetail is a strict superset of PodSummary.
type PodDetail struct {
	Context string `json:"context"`
	PodSummary
	HostIP         string            `json:"hostIP,omitempty"`
	QOSClass       string            `json:"qosClass,omitempty"`
	ServiceAccount string            `json:"serviceAccount,omitempty"`
	Owners         []OwnerReference  `json:"owners,omitempty"`
	Containers     []ContainerDetail `json:"containers"`
	VolumeMounts   []VolumeMount     `json:"volumeMounts"`
	Volumes        []Volume          `json:"volumes,omitempty"`
	Conditions     []Condition       `json:"conditions,omitempty"`
	Events         []EventInfo       `json:"events"`
}

// DeploymentSummary is the list view of a deployment.
type DeploymentSummary struct {
	Name              string      `json:"name"`
	Namespace         string      `json:"namespace"`
	DesiredReplicas   int32       `json:"desiredReplicas"`
	CurrentReplicas   int32       `json:"currentReplicas"`
	ReadyReplicas     int32       `json:"readyReplicas"`
	AvailableReplicas int32       `json:"availableReplicas"`
	UpdatedReplicas   int32       `json:"updatedReplicas"`
	Strategy          string      `json:"strategy"`
	Healthy           bool        `json:"healthy"`
	Age               string      `json:"age"`
	CreatedAt         time.Time   `json:"createdAt"`
	Conditions        []Condition `json:"conditions,omitempty"`
}

// DeploymentList is the result of ListDeployments.
type DeploymentList struct {
	Context     string              `json:"context"`
	Namespace   string              `json:"namespace"`
	Count       int                 `json:"count"`
	Deployments []DeploymentSummary `json:"deployments"`
}

// DeploymentStatus is the rollout status of one deployment. RolloutComplete
// is true once the controller has observed the latest generation and every
// desired replica is updated and available.
type DeploymentStatus struct {
	Context string `json:"context"`
	DeploymentSummary
	Generation          int64             `json:"generation"`
	ObservedGeneration  int64             `json:"observedGeneration"`
	UnavailableReplicas int32             `json:"unavailableReplicas"`
	RolloutComplete     bool              `json:"rolloutComplete"`
	Selector            map[string]string `json:"selector,omitempty"`
	Images              []string          `json:"images"`
}

// ScaleResult reports an accepted scale request. ObservedReplicas is
// status.replicas right after the patch and may lag RequestedReplicas until
// the controller converges.
type ScaleResult struct {
	Context           string `json:"context"`
	Namespace         string `json:"namespace"`
	Name              string `json:"name"`
	RequestedReplicas int32  `json:"requestedReplicas"`
	ObservedReplicas  int32  `json:"observedReplicas"`
	PreviousReplicas  int32  `json:"previousReplicas"`
	DryRun            bool   `json:"dryRun,omitempty"`
}

// RolloutResult reports an accepted rollout restart.
type RolloutResult struct {
	Context         string `json:"context"`
	Namespace       string `json:"namespace"`
	Name            string `json:"name"`
	RestartedAt     string `json:"restartedAt"`
	Accepted        bool   `json:"accepted"`
	CurrentReplicas int32  `json:"currentReplicas"`
	DryRun          bool   `json:"dryRun,omitempty"`
}

// NodeResources holds quantities rendered in Kubernetes notation.
type NodeResources struct {
	CPU              string `json:"cpu"`
	Memory           string `json:"memory"`
	Pods             string `json:"pods,omitempty"`
	EphemeralStorage string `json:"ephemeralStorage,omitempty"`
}

// NodeSystemInfo is the subset of node system info reported to callers.
type NodeSystemInfo struct {
	OSImage          string `json:"osImage,omitempty"`
	KernelVersion    string `json:"kernelVersion,omitempty"`
	ContainerRuntime string `json:"containerRuntime,omitempty"`
	Architecture     string `json:"architecture,omitempty"`
	OperatingSystem  string `json:"operatingSystem,omitempty"`
}

// NodeUsage is the current resource consumption of a node.
type NodeUsage struct {
	CPU           string  `json:"cpu"`
	Memory        string  `json:"memory"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
}

// NodeSummary is the list view of a node.
type NodeSummary struct {
	Name           string         `json:"name"`
	Roles          []string       `json:"roles"`
	Status         string         `json:"status"`
	Unschedulable  bool           `json:"unschedulable,omitempty"`
	Capacity       NodeResources  `json:"capacity"`
	Allocatable    NodeResources  `json:"allocatable"`
	KubeletVersion string         `json:"kubeletVersion"`
	InternalIP     string         `json:"internalIP,omitempty"`
	Age            string         `json:"age"`
	CreatedAt      time.Time      `json:"createdAt"`
	SystemInfo     NodeSystemInfo `json:"systemInfo"`
	Conditions     []Condition    `json:"conditions,omitempty"`
	Usage          *NodeUsage     `json:"usage,omitempty"`
}

// ClusterSummary aggregates the nodes of a context.
type ClusterSummary struct {
	TotalNodes        int           `json:"totalNodes"`
	ReadyNodes        int           `json:"readyNodes"`
	ControlPlaneNodes int           `json:"controlPlaneNodes"`
	WorkerNodes       int           `json:"workerNodes"`
	Capacity          NodeResources `json:"capacity"`
	Allocatable       NodeResources `json:"allocatable"`
}

// NodeList is the result of ListNodes.
type NodeList struct {
	Context        string         `json:"context"`
	Nodes          []NodeSummary  `json:"nodes"`
	Summary        ClusterSummary `json:"summary"`
	UsageRequested bool           `json:"usageRequested,omitempty"`
	UsageAvailable bool           `json:"usageAvailable"`
	UsageError     string         `json:"usageError,omitempty"`
}

// LogPayload is the result of GetLogs.
type LogPayload struct {
	Context   string   `json:"context"`
	Namespace string   `json:"namespace"`
	Pod       string   `json:"pod"`
	Container string   `json:"container"`
	Previous  bool     `json:"previous"`
	TailLines int64    `json:"tailLines"`
	Truncated bool     `json:"truncated"`
	LineCount int      `json:"lineCount"`
	Lines     []string `json:"lines"`
}
