package docbind

import "log/slog"

// Option configures an [Entity] or a [Cache].
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for lifecycle and cache events. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
