package isoforest

import (
	"runtime"

	"github.com/pbanos/isoforest/metrics"
	"go.uber.org/zap"
)

// Option customises how forests are grown and applied
type Option func(*settings)

type settings struct {
	logger  *zap.Logger
	metrics *metrics.Collector
	threads int
}

// WithLogger makes operations log through the given logger
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics makes operations record their work on the given collector
func WithMetrics(c *metrics.Collector) Option {
	return func(s *settings) {
		s.metrics = c
	}
}

/*
WithThreads limits the goroutines an operation runs at once, overriding the
Threads of the forest configuration. Values below 1 are ignored.
*/
func WithThreads(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.threads = n
		}
	}
}

func newSettings(threads int, opts []Option) *settings {
	s := &settings{logger: zap.NewNop(), threads: threads}
	for _, o := range opts {
		o(s)
	}
	if s.threads < 1 {
		s.threads = runtime.GOMAXPROCS(0)
	}
	return s
}
