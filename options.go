package lazy

// settings collects per-loader configuration applied by options.
type settings struct {
	name     string
	policy   FailurePolicy
	observer Observer
}

func newSettings(opts ...Option) settings {
	cfg := settings{policy: PolicyRetry}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	if cfg.policy == "" {
		cfg.policy = PolicyRetry
	}
	return cfg
}

// Option mutates loader settings at construction time.
type Option func(settings) settings

// WithName labels the loader in observer events.
func WithName(name string) Option {
	return func(cfg settings) settings {
		cfg.name = name
		return cfg
	}
}

// WithFailurePolicy selects how a failed construction is treated; the
// default is PolicyRetry.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(cfg settings) settings {
		cfg.policy = policy
		return cfg
	}
}

// WithObserver attaches an observer receiving construction events.
func WithObserver(o Observer) Option {
	return func(cfg settings) settings {
		cfg.observer = o
		return cfg
	}
}
