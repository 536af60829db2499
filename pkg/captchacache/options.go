package captchacache

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/captchacache/core"
)

// Logger receives diagnostics about unexpected module replies.
// *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Recorder observes every command sent to the module
type Recorder interface {
	RecordCommand(command string, elapsed time.Duration, err error)
}

// Encoder produces the exact payload sent with ADD_CAPTCHA
type Encoder func(config core.CaptchaConfig) (string, error)

// Option is a functional option for configuring a Cache.
type Option func(*options) error

type options struct {
	catalog  core.Catalog
	logger   Logger
	recorder Recorder
	encoder  Encoder
}

func defaultOptions() options {
	return options{
		catalog: core.DefaultCatalog(),
		logger:  log.Default(),
		encoder: JSONEncoder,
	}
}

// JSONEncoder is the default Encoder. It emits the JSON object the cache
// module parses: {"levels":[...],"duration":N}.
func JSONEncoder(config core.CaptchaConfig) (string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WithLogger sets where protocol anomalies are logged.
// If not provided, log.Default() is used.
func WithLogger(logger Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidOption)
		}
		o.logger = logger
		return nil
	}
}

// WithRecorder reports each command's latency and outcome to recorder.
func WithRecorder(recorder Recorder) Option {
	return func(o *options) error {
		if recorder == nil {
			return fmt.Errorf("%w: recorder cannot be nil", ErrInvalidOption)
		}
		o.recorder = recorder
		return nil
	}
}

// WithEncoder replaces the configuration serializer.
func WithEncoder(encoder Encoder) Option {
	return func(o *options) error {
		if encoder == nil {
			return fmt.Errorf("%w: encoder cannot be nil", ErrInvalidOption)
		}
		o.encoder = encoder
		return nil
	}
}

// WithCatalog targets a module build that registers different names.
// Every name must be set.
func WithCatalog(catalog core.Catalog) Option {
	return func(o *options) error {
		if catalog.Module == "" {
			return fmt.Errorf("%w: catalog module name cannot be empty", ErrInvalidOption)
		}
		for _, name := range catalog.Commands() {
			if name == "" {
				return fmt.Errorf("%w: catalog command name cannot be empty", ErrInvalidOption)
			}
		}
		o.catalog = catalog
		return nil
	}
}
