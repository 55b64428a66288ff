package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/giantswarm/mcp-kubeops/internal/server/middleware"
)

// Transport names accepted by --transport.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// envPrefix prefixes the environment variable of every serve flag.
// --qps-limit is read from MCP_KUBEOPS_QPS_LIMIT.
const envPrefix = "MCP_KUBEOPS_"

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Kubernetes source
	Kubeconfig string
	Context    string
	InCluster  bool
	Namespace  string

	// Mutation policy
	NonDestructiveMode bool
	DryRun             bool
	AllowedOperations  []string

	// Kubernetes client settings
	QPSLimit           float32
	BurstLimit         int
	RequestTimeout     time.Duration
	ReadRetryBackoff   time.Duration
	LogTailCap         int64
	VerifyConnectivity bool

	// Logging
	DebugMode bool
	LogFormat string

	// Transport settings
	Transport       string
	HTTPAddr        string
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string
	MetricsAddr     string
	AllowedOrigins  string
	EnableHSTS      bool

	// ConfigFile is an optional TOML file with defaults for the flags above.
	ConfigFile string
}

// unboundFlags are never read from the environment or the config file.
var unboundFlags = map[string]bool{
	"config": true,
	"help":   true,
}

// envKey returns the environment variable for a flag name.
func envKey(flagName string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// loadEnvIfUnchanged sets every flag the user did not pass from its
// MCP_KUBEOPS_* variable. Explicit flags always win, including explicit
// zero values such as --dry-run=false.
func loadEnvIfUnchanged(flags *pflag.FlagSet) error {
	var errs []string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || unboundFlags[f.Name] {
			return
		}
		value, ok := os.LookupEnv(envKey(f.Name))
		if !ok || value == "" {
			return
		}
		if err := flags.Set(f.Name, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", envKey(f.Name), err))
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// readConfigFile decodes a TOML file into flag-name keyed values.
// Keys use snake_case (qps_limit) and must name a serve flag.
func readConfigFile(fs afero.Fs, path string, flags *pflag.FlagSet) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	raw := map[string]interface{}{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	var unknown []string
	for key, v := range raw {
		name := strings.ReplaceAll(key, "_", "-")
		if flags.Lookup(name) == nil || unboundFlags[name] {
			unknown = append(unknown, key)
			continue
		}
		values[name] = tomlValueString(v)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(unknown, ", "))
	}
	return values, nil
}

func tomlValueString(v interface{}) string {
	switch val := v.(type) {
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// applyFileIfUnchanged sets every flag that neither the command line nor the
// environment provided from the config file values.
func applyFileIfUnchanged(flags *pflag.FlagSet, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if flags.Changed(name) {
			continue
		}
		if err := flags.Set(name, values[name]); err != nil {
			return fmt.Errorf("invalid value for %s in config file: %w", strings.ReplaceAll(name, "-", "_"), err)
		}
	}
	return nil
}

// resolveServeConfig layers the environment and the config file under the
// flags already parsed into cmd. Precedence is flags, then environment, then
// file, then flag defaults.
func resolveServeConfig(cmd *cobra.Command, fs afero.Fs, config *ServeConfig) error {
	flags := cmd.Flags()

	if !flags.Changed("config") {
		if path := os.Getenv(envKey("config")); path != "" {
			config.ConfigFile = path
		}
	}

	if err := loadEnvIfUnchanged(flags); err != nil {
		return err
	}

	if config.ConfigFile != "" {
		values, err := readConfigFile(fs, config.ConfigFile, flags)
		if err != nil {
			return err
		}
		if err := applyFileIfUnchanged(flags, values); err != nil {
			return err
		}
	}

	return validateServeConfig(config)
}

// validateServeConfig checks settings that flag parsing cannot.
func validateServeConfig(config *ServeConfig) error {
	switch config.Transport {
	case transportStdio, transportSSE, transportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", config.Transport)
	}

	switch strings.ToLower(config.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s (supported: text, json)", config.LogFormat)
	}

	if config.InCluster && (config.Kubeconfig != "" || config.Context != "") {
		return fmt.Errorf("--in-cluster cannot be combined with --kubeconfig or --context")
	}
	if config.QPSLimit <= 0 {
		return fmt.Errorf("qps-limit must be positive, got %v", config.QPSLimit)
	}
	if config.BurstLimit <= 0 {
		return fmt.Errorf("burst-limit must be positive, got %d", config.BurstLimit)
	}
	if config.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive, got %s", config.RequestTimeout)
	}
	if config.ReadRetryBackoff < 0 {
		return fmt.Errorf("read-retry-backoff must not be negative, got %s", config.ReadRetryBackoff)
	}
	if config.LogTailCap <= 0 {
		return fmt.Errorf("log-tail-cap must be positive, got %d", config.LogTailCap)
	}

	if _, err := middleware.ValidateAllowedOrigins(config.AllowedOrigins); err != nil {
		return fmt.Errorf("invalid allowed-origins: %w", err)
	}
	return nil
}

// logFormat picks the handler format. stdio keeps text on stderr; HTTP
// transports default to JSON.
func (c *ServeConfig) logFormat() string {
	if c.LogFormat != "" {
		return strings.ToLower(c.LogFormat)
	}
	if c.Transport == transportStdio {
		return "text"
	}
	return "json"
}

func (c *ServeConfig) logLevel() string {
	if c.DebugMode {
		return "debug"
	}
	return "info"
}
