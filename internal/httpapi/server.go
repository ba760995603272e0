package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"niederschlag-server/internal/config"
	"niederschlag-server/internal/observability"
)

const operationName = "niederschlag-server"

// Handler wraps mux in the middleware chain:
// otelhttp -> request log -> metrics -> CORS -> mux.
// metrics may be nil.
func Handler(mux http.Handler, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	h := cors(mux)
	if metrics != nil {
		h = instrument(metrics, clock, h)
	}
	h = requestLogger(logger, clock, h)
	return otelhttp.NewHandler(h, operationName)
}

func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
