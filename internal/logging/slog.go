package logging

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// Attribute keys shared by every component that logs.
const (
	KeyOperation    = "operation"
	KeyContext      = "context"
	KeyNamespace    = "namespace"
	KeyResourceType = "resource_type"
	KeyDuration     = "duration"
	KeyError        = "error"
	KeyHost         = "host"
	KeyTool         = "tool"
	KeyErrorKind    = "error_kind"
	KeyTraceID      = "trace_id"
)

const redactedIP = "<redacted-ip>"

var (
	ipv4Pattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	// Matches full, compressed and bracketed IPv6 forms.
	ipv6Pattern = regexp.MustCompile(`\[?([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}\]?`)
)

// Operation returns an attribute naming a Kubernetes operation such as list or scale.
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// Context returns an attribute naming a kubeconfig context.
func Context(name string) slog.Attr { return slog.String(KeyContext, name) }

// Namespace returns an attribute naming a namespace. Empty means all namespaces.
func Namespace(ns string) slog.Attr { return slog.String(KeyNamespace, ns) }

// ResourceType returns an attribute naming an API resource, e.g. "pods".
func ResourceType(rt string) slog.Attr { return slog.String(KeyResourceType, rt) }

// ErrorKind returns an attribute carrying the classified kind of a failure.
func ErrorKind(kind string) slog.Attr { return slog.String(KeyErrorKind, kind) }

// Err returns an attribute for err. A nil error yields an empty value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizedErr is Err with IP addresses redacted. API server errors often
// embed the server address, anywhere in the message.
func SanitizedErr(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, redactIPs(err.Error()))
}

// Host returns an attribute for an API server host with IPs redacted.
func Host(host string) slog.Attr {
	return slog.String(KeyHost, SanitizeHost(host))
}

func redactIPs(s string) string {
	s = ipv4Pattern.ReplaceAllString(s, redactedIP)
	return ipv6Pattern.ReplaceAllString(s, redactedIP)
}

// SanitizeHost redacts IPv4 and IPv6 addresses from a host or URL.
// Hostnames and ports are kept.
//
//	"https://192.168.1.100:6443"           -> "https://<redacted-ip>:6443"
//	"https://api.prod.example.com:6443"    -> unchanged
//	"https://[2001:db8::1]:6443"           -> "https://<redacted-ip>:6443"
//	""                                     -> "<empty>"
func SanitizeHost(host string) string {
	if host == "" {
		return "<empty>"
	}
	if !strings.Contains(host, "://") {
		return redactIPs(host)
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return redactIPs(host)
	}
	if !ipv4Pattern.MatchString(parsed.Host) && !ipv6Pattern.MatchString(parsed.Host) {
		return host
	}
	parsed.Host = redactIPs(parsed.Host)
	return parsed.String()
}
