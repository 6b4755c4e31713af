package middleware

import (
	"log/slog"

	"github.com/zee-sandev/outscope"
)

// corsPlugin attaches the CORS middleware during app initialization.
type corsPlugin struct {
	cfg *CORSConfig
}

// CORSPlugin wraps CORS as a plugin so it can be attached with
// App.WithPlugin alongside other lifecycle hooks. A nil config uses
// DefaultCORSConfig.
func CORSPlugin(cfg *CORSConfig) outscope.Plugin {
	return &corsPlugin{cfg: cfg}
}

func (p *corsPlugin) Name() string { return "cors" }

func (p *corsPlugin) Init(app *outscope.App) error {
	app.WithMiddleware(CORS(p.cfg))
	return nil
}

// loggingPlugin attaches the logging interceptor during app initialization.
type loggingPlugin struct {
	logger *slog.Logger
}

// LoggingPlugin wraps LoggingInterceptor as a plugin. A nil logger uses
// slog.Default.
func LoggingPlugin(logger *slog.Logger) outscope.Plugin {
	return &loggingPlugin{logger: logger}
}

func (p *loggingPlugin) Name() string { return "logging" }

func (p *loggingPlugin) Init(app *outscope.App) error {
	app.WithUnaryInterceptor(LoggingInterceptor(p.logger))
	return nil
}
