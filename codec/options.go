package codec

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"typecodec/registry"
)

const (
	DefaultFallbackLogRate  = 1.0 // events per second
	DefaultFallbackLogBurst = 10
)

// Options is the file-configurable part of an Encoder or Decoder. The zero
// value selects JSON on the wire, UUID detection on, and the default log rate.
type Options struct {
	Wire                 string  `yaml:"wire"` // "json" or "cbor"
	DisableUUIDDetection bool    `yaml:"disable_uuid_detection"`
	FallbackLogRate      float64 `yaml:"fallback_log_rate"`
	FallbackLogBurst     int     `yaml:"fallback_log_burst"`
}

// Validate checks the option values.
func (o Options) Validate() error {
	if o.Wire != "" {
		if _, err := ParseCodecType(o.Wire); err != nil {
			return err
		}
	}
	if o.FallbackLogRate < 0 {
		return fmt.Errorf("codec: fallback_log_rate must not be negative")
	}
	if o.FallbackLogBurst < 0 {
		return fmt.Errorf("codec: fallback_log_burst must not be negative")
	}
	return nil
}

// WireCodec returns the wire codec named by Wire.
func (o Options) WireCodec() (Codec, error) {
	if o.Wire == "" {
		return GetCodec(CodecTypeJSON), nil
	}
	t, err := ParseCodecType(o.Wire)
	if err != nil {
		return nil, err
	}
	return GetCodec(t), nil
}

type settings struct {
	logger   *zap.Logger
	resolver registry.Resolver
	opts     Options
}

// Option configures NewEncoder and NewDecoder.
type Option func(*settings)

// WithLogger sets the logger degradations are reported to. Without it the
// process-global zap logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithResolver sets the resolution context a Decoder reconstructs types in.
// Encoders ignore it.
func WithResolver(r registry.Resolver) Option {
	return func(s *settings) {
		s.resolver = r
	}
}

// WithOptions applies file-level options.
func WithOptions(o Options) Option {
	return func(s *settings) {
		s.opts = o
	}
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// fallbackLog reports degradations at debug level, rate limited so a stream
// of bad values cannot flood the log.
type fallbackLog struct {
	logger  *zap.Logger
	limiter *rate.Limiter
}

func newFallbackLog(s settings) *fallbackLog {
	r := s.opts.FallbackLogRate
	if r == 0 {
		r = DefaultFallbackLogRate
	}
	burst := s.opts.FallbackLogBurst
	if burst == 0 {
		burst = DefaultFallbackLogBurst
	}
	return &fallbackLog{
		logger:  s.logger,
		limiter: rate.NewLimiter(rate.Limit(r), burst),
	}
}

func (f *fallbackLog) debug(msg string, fields ...zap.Field) {
	logger := f.logger
	if logger == nil {
		logger = zap.L()
	}
	// only spend a token when debug output is actually enabled
	if ce := logger.Check(zap.DebugLevel, msg); ce != nil && f.limiter.Allow() {
		ce.Write(fields...)
	}
}
