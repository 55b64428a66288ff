package k8s

import "time"

const (
	// Service account paths - default Kubernetes in-cluster locations
	DefaultServiceAccountPath = "/var/run/secrets/kubernetes.io/serviceaccount"
	DefaultTokenPath          = DefaultServiceAccountPath + "/token"
	DefaultCACertPath         = DefaultServiceAccountPath + "/ca.crt"
	DefaultNamespacePath      = DefaultServiceAccountPath + "/namespace"

	// Default performance settings
	DefaultQPSLimit   = 20.0
	DefaultBurstLimit = 30
	DefaultTimeout    = 30 // seconds

	// DefaultReadRetryBackoff is the pause before the single retry of a read
	// that failed with a connection error.
	DefaultReadRetryBackoff = 250 * time.Millisecond

	// DefaultReadAttempts is the total number of attempts for a read (first try + one retry).
	DefaultReadAttempts = 2

	// In-cluster context name
	InClusterContext = "in-cluster"

	// DefaultNamespace is used by single-object operations when no namespace is given.
	DefaultNamespace = "default"
)

// Log retrieval limits.
const (
	DefaultLogTailLines int64 = 100
	DefaultLogTailCap   int64 = 1000
	// DefaultLogLimitBytes caps the size of a single log response.
	DefaultLogLimitBytes int64 = 5 * 1024 * 1024
)

// MaxPodEvents is the number of most recent events attached to a pod detail.
const MaxPodEvents = 20

// Labels and annotations read or written by the client.
const (
	RestartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"
	NodeRoleLabelPrefix   = "node-role.kubernetes.io/"
	LegacyNodeRoleLabel   = "kubernetes.io/role"
	NoNodeRole            = "none"
)

// Node status values.
const (
	NodeStatusReady    = "Ready"
	NodeStatusNotReady = "NotReady"
	NodeStatusUnknown  = "Unknown"
)
