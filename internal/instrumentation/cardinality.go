package instrumentation

import "strings"

// ContextClass groups kubeconfig context names into a small label set.
// Context names are unbounded and must never be used as metric labels directly.
type ContextClass string

const (
	ContextClassDefault     ContextClass = "default"
	ContextClassInCluster   ContextClass = "in-cluster"
	ContextClassLocal       ContextClass = "local"
	ContextClassProduction  ContextClass = "production"
	ContextClassStaging     ContextClass = "staging"
	ContextClassDevelopment ContextClass = "development"
	ContextClassOther       ContextClass = "other"
)

var localContextPrefixes = []string{"kind-", "k3d-", "minikube", "docker-desktop", "rancher-desktop", "colima"}

// ClassifyContextName maps a context name to a ContextClass.
//
// An empty name means the call used the default context. Matching is
// case-insensitive and checks local development clusters first since their
// names often embed an environment word.
//
//	ClassifyContextName("")                          // "default"
//	ClassifyContextName("in-cluster")                // "in-cluster"
//	ClassifyContextName("kind-dev")                  // "local"
//	ClassifyContextName("gs-prod-eu1")               // "production"
//	ClassifyContextName("arn:aws:eks:...:cluster/stg-api") // "staging"
//	ClassifyContextName("team-dev")                  // "development"
//	ClassifyContextName("my-cluster")                // "other"
func ClassifyContextName(name string) string {
	if name == "" {
		return string(ContextClassDefault)
	}

	lower := strings.ToLower(name)
	if lower == "in-cluster" {
		return string(ContextClassInCluster)
	}
	for _, prefix := range localContextPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return string(ContextClassLocal)
		}
	}

	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == '/' || r == ':' || r == '@'
	})
	has := func(words ...string) bool {
		for _, tok := range tokens {
			for _, w := range words {
				if tok == w {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("prod", "production", "prd", "live"):
		return string(ContextClassProduction)
	case has("staging", "stg", "stage", "uat", "preprod"):
		return string(ContextClassStaging)
	case has("dev", "development", "test", "sandbox", "demo"):
		return string(ContextClassDevelopment)
	}
	return string(ContextClassOther)
}
