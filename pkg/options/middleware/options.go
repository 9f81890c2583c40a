// Package middleware provides HTTP middleware configuration options.
package middleware

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/kart-io/unirag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options groups the options of every built-in middleware.
type Options struct {
	Recovery  *RecoveryOptions  `json:"recovery" mapstructure:"recovery"`
	RequestID *RequestIDOptions `json:"request-id" mapstructure:"request-id"`
	Logger    *LoggerOptions    `json:"logger" mapstructure:"logger"`
	CORS      *CORSOptions      `json:"cors" mapstructure:"cors"`
}

// RecoveryOptions defines recovery middleware options.
type RecoveryOptions struct {
	// EnableStackTrace logs the stack of recovered panics.
	EnableStackTrace bool `json:"enable-stack-trace" mapstructure:"enable-stack-trace"`
}

// RequestIDOptions defines request ID middleware options.
type RequestIDOptions struct {
	Header string `json:"header" mapstructure:"header"`
}

// LoggerOptions defines access log middleware options.
type LoggerOptions struct {
	SkipPaths []string `json:"skip-paths" mapstructure:"skip-paths"`
}

// CORSOptions defines CORS middleware options.
type CORSOptions struct {
	Enabled          bool     `json:"enabled" mapstructure:"enabled"`
	AllowOrigins     []string `json:"allow-origins" mapstructure:"allow-origins"`
	AllowMethods     []string `json:"allow-methods" mapstructure:"allow-methods"`
	AllowHeaders     []string `json:"allow-headers" mapstructure:"allow-headers"`
	AllowCredentials bool     `json:"allow-credentials" mapstructure:"allow-credentials"`
	MaxAge           int      `json:"max-age" mapstructure:"max-age"`
}

// NewOptions creates default middleware options. CORS is open to every
// origin, the public web form is served from another host.
func NewOptions() *Options {
	return &Options{
		Recovery:  &RecoveryOptions{},
		RequestID: &RequestIDOptions{Header: "X-Request-ID"},
		Logger:    &LoggerOptions{SkipPaths: []string{"/health"}},
		CORS: &CORSOptions{
			Enabled:      true,
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Accept-Language", "X-Request-ID"},
			MaxAge:       86400,
		},
	}
}

// AddFlags adds flags for middleware options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "middleware."
	fs.BoolVar(&o.Recovery.EnableStackTrace, p+"recovery.enable-stack-trace", o.Recovery.EnableStackTrace, "Log stack traces of recovered panics.")
	fs.StringVar(&o.RequestID.Header, p+"request-id.header", o.RequestID.Header, "Request ID header name.")
	fs.StringSliceVar(&o.Logger.SkipPaths, p+"logger.skip-paths", o.Logger.SkipPaths, "Paths excluded from access logs.")
	fs.BoolVar(&o.CORS.Enabled, p+"cors.enabled", o.CORS.Enabled, "Enable CORS.")
	fs.StringSliceVar(&o.CORS.AllowOrigins, p+"cors.allow-origins", o.CORS.AllowOrigins, "CORS allowed origins.")
	fs.StringSliceVar(&o.CORS.AllowMethods, p+"cors.allow-methods", o.CORS.AllowMethods, "CORS allowed methods.")
	fs.StringSliceVar(&o.CORS.AllowHeaders, p+"cors.allow-headers", o.CORS.AllowHeaders, "CORS allowed headers.")
	fs.BoolVar(&o.CORS.AllowCredentials, p+"cors.allow-credentials", o.CORS.AllowCredentials, "CORS allow credentials.")
	fs.IntVar(&o.CORS.MaxAge, p+"cors.max-age", o.CORS.MaxAge, "CORS preflight max age in seconds.")
}

// Validate validates the middleware options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.RequestID != nil && o.RequestID.Header == "" {
		errs = append(errs, errors.New("middleware.request-id.header must not be empty"))
	}
	if c := o.CORS; c != nil && c.Enabled {
		if len(c.AllowOrigins) == 0 {
			errs = append(errs, errors.New("middleware.cors.allow-origins must not be empty"))
		}
		for _, origin := range c.AllowOrigins {
			if origin == "*" && c.AllowCredentials {
				errs = append(errs, errors.New("middleware.cors: wildcard origin cannot be used with credentials"))
				break
			}
		}
	}
	return errs
}
