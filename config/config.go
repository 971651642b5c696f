// Package config defines the extension configuration and its file format.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/reglet-dev/reglet-memes/api"
	"github.com/reglet-dev/reglet-memes/command"
	"github.com/reglet-dev/reglet-memes/netutil"
)

// ErrInvalid is returned for configuration that fails schema or semantic
// validation.
var ErrInvalid = errors.New("invalid configuration")

const (
	DefaultEndpoint    = "http://127.0.0.1:2233"
	DefaultTimeout     = "10s"
	DefaultCommandName = "memes"
	DefaultLocale      = "zh-CN"
)

// Config is the extension configuration.
type Config struct {
	Request       Request  `yaml:"request,omitempty" json:"request,omitempty"`
	Locale        string   `yaml:"locale,omitempty" json:"locale,omitempty" jsonschema:"description=Locale for operator and user messages,example=zh-CN"`
	CommandName   string   `yaml:"command_name,omitempty" json:"command_name,omitempty" jsonschema:"description=Name of the top-level command,pattern=^[a-z0-9][a-z0-9_-]*$"`
	DisabledMemes []string `yaml:"disabled_memes,omitempty" json:"disabled_memes,omitempty" jsonschema:"description=Glob patterns of meme keys that get no command"`
	Shortcuts     bool     `yaml:"shortcuts,omitempty" json:"shortcuts,omitempty" jsonschema:"description=Register message shortcuts advertised by the backend"`
}

// Request configures the backend HTTP client.
type Request struct {
	Endpoint   string            `yaml:"endpoint,omitempty" json:"endpoint,omitempty" jsonschema:"description=Base URL of meme-generator-rs,format=uri"`
	Timeout    string            `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Per-request timeout as a Go duration,pattern=^([0-9.]+(ns|us|µs|ms|s|m|h))+$"`
	Headers    map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	MaxRetries int               `yaml:"max_retries,omitempty" json:"max_retries,omitempty" jsonschema:"minimum=0,maximum=10"`
	UserAgent  string            `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Insecure   bool              `yaml:"insecure,omitempty" json:"insecure,omitempty" jsonschema:"description=Skip TLS certificate verification"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Request: Request{
			Endpoint: DefaultEndpoint,
			Timeout:  DefaultTimeout,
		},
		Locale:      DefaultLocale,
		CommandName: DefaultCommandName,
	}
}

// Validate checks the semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	if _, err := netutil.ParseEndpoint(c.Request.Endpoint); err != nil {
		return fmt.Errorf("%w: request.endpoint: %v", ErrInvalid, err)
	}
	if _, err := c.Request.TimeoutDuration(); err != nil {
		return fmt.Errorf("%w: request.timeout: %v", ErrInvalid, err)
	}
	if c.Request.MaxRetries < 0 {
		return fmt.Errorf("%w: request.max_retries must not be negative", ErrInvalid)
	}
	if c.CommandName == "" {
		return fmt.Errorf("%w: command_name is empty", ErrInvalid)
	}
	if _, err := command.NewMemeBuilder(nil, command.WithDisabled(c.DisabledMemes...)); err != nil {
		return fmt.Errorf("%w: disabled_memes: %v", ErrInvalid, err)
	}
	return nil
}

// TimeoutDuration parses Timeout. An empty value means no client timeout.
func (r Request) TimeoutDuration() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %s", r.Timeout)
	}
	return d, nil
}

// ClientOptions translates the request settings into api client options.
func (c *Config) ClientOptions() []api.Option {
	var opts []api.Option
	if d, err := c.Request.TimeoutDuration(); err == nil && d > 0 {
		opts = append(opts, api.WithTimeout(d))
	}
	if c.Request.MaxRetries > 0 {
		opts = append(opts, api.WithRetries(c.Request.MaxRetries, 0))
	}
	if len(c.Request.Headers) > 0 {
		opts = append(opts, api.WithHeaders(c.Request.Headers))
	}
	if c.Request.UserAgent != "" {
		opts = append(opts, api.WithUserAgent(c.Request.UserAgent))
	}
	if c.Request.Insecure {
		opts = append(opts, api.WithInsecureTLS(true))
	}
	return opts
}

// BuilderOptions translates the meme settings into builder options.
func (c *Config) BuilderOptions() []command.BuilderOption {
	return []command.BuilderOption{
		command.WithDisabled(c.DisabledMemes...),
		command.WithShortcuts(c.Shortcuts),
	}
}
