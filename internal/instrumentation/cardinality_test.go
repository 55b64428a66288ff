package instrumentation

import "testing"

func TestClassifyContextName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ContextClass
	}{
		{name: "empty means default context", input: "", expected: ContextClassDefault},
		{name: "in-cluster", input: "in-cluster", expected: ContextClassInCluster},
		{name: "kind", input: "kind-prod-replica", expected: ContextClassLocal},
		{name: "minikube", input: "minikube", expected: ContextClassLocal},
		{name: "docker desktop", input: "docker-desktop", expected: ContextClassLocal},
		{name: "prod token", input: "gs-prod-eu1", expected: ContextClassProduction},
		{name: "production suffix", input: "payments_production", expected: ContextClassProduction},
		{name: "uppercase", input: "PROD-API", expected: ContextClassProduction},
		{name: "eks arn", input: "arn:aws:eks:eu-west-1:123456789012:cluster/stg-api", expected: ContextClassStaging},
		{name: "user at cluster", input: "admin@staging", expected: ContextClassStaging},
		{name: "dev", input: "team-dev", expected: ContextClassDevelopment},
		{name: "sandbox", input: "sandbox.example.com", expected: ContextClassDevelopment},
		{name: "substring is not a token", input: "product-catalog", expected: ContextClassOther},
		{name: "unrelated", input: "my-cluster", expected: ContextClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyContextName(tt.input); got != string(tt.expected) {
				t.Errorf("ClassifyContextName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
