package repocache

import (
	"github.com/nanogit/nanogit/internal/git"
	"go.uber.org/zap"
)

// DefaultMaxLog is the default cap on the log projection length.
const DefaultMaxLog = 10

type Config struct {
	MaxLog   int
	LogOrder git.LogOrder
	// IdentityScope selects where the commit identity is read from.
	IdentityScope git.ConfigScope
}

type options struct {
	config  Config
	metrics *Metrics
	logger  *zap.Logger
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxLog caps the log projection. Values below one fall back to
// DefaultMaxLog.
func WithMaxLog(n int) Option {
	return func(o *options) {
		o.config.MaxLog = n
	}
}

func WithLogOrder(order git.LogOrder) Option {
	return func(o *options) {
		o.config.LogOrder = order
	}
}

// WithIdentityScope narrows the configuration the commit identity is read
// from. It has no effect on New, where the repository is already open.
func WithIdentityScope(scope git.ConfigScope) Option {
	return func(o *options) {
		o.config.IdentityScope = scope
	}
}

func WithConfig(config Config) Option {
	return func(o *options) {
		o.config = config
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

func newOptions(opts []Option) options {
	o := options{
		config: Config{
			MaxLog:        DefaultMaxLog,
			LogOrder:      git.LogOrderDefault,
			IdentityScope: git.ScopeSystem,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.config.MaxLog < 1 {
		o.config.MaxLog = DefaultMaxLog
	}
	if o.config.LogOrder == "" {
		o.config.LogOrder = git.LogOrderDefault
	}
	if o.config.IdentityScope == "" {
		o.config.IdentityScope = git.ScopeSystem
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return o
}
