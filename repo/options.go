package repo

import "github.com/ashigeru/smalltable/logging"

// Options configures a Repository. The zero Options is not ready to
// use; call SetDefaults or construct through New, which calls it for
// the caller.
type Options struct {
	// MaxRetry bounds the optimistic commit loop, spec.md §4.3's
	// MAX_RETRY constant made configurable rather than hardwired.
	MaxRetry int

	// MetricsNamespace prefixes every metric name the Collector
	// exports, matching the teacher's convention of a per-component
	// Prometheus namespace.
	MetricsNamespace string

	Logger logging.Logger
}

const defaultMaxRetry = 5

// SetDefaults fills unset fields with the repository's defaults.
func (o *Options) SetDefaults() {
	if o.MaxRetry <= 0 {
		o.MaxRetry = defaultMaxRetry
	}
	if o.MetricsNamespace == "" {
		o.MetricsNamespace = "smalltable"
	}
	if o.Logger == nil {
		o.Logger = logging.Nop{}
	}
}
