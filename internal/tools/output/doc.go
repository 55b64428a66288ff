// Package output renders tool results as JSON or YAML.
//
// YAML goes through sigs.k8s.io/yaml, so both formats honour the json
// struct tags of the result types and field names match between them.
package output
