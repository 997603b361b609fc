package internal

// application collects everything Run needs before it starts the
// server. Options fill it in.
type application struct {
	config *Config
}

// Option configures Run.
type Option func(*application)

// WithConfig supplies the loaded configuration. Run fails without one.
func WithConfig(cfg *Config) Option {
	return func(a *application) { a.config = cfg }
}
