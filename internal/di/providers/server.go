package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/recipebox/recipebox-server/internal/api"
	"github.com/recipebox/recipebox-server/internal/config"
	"github.com/recipebox/recipebox-server/internal/logger"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/service"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideAPIServer builds the router with every route registered. The
// container calls its Shutdown, stopping the rate limiter.
func ProvideAPIServer(i do.Injector) (*api.Server, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:      do.MustInvoke[*service.AuthService](i),
		Recipe:    do.MustInvoke[*service.RecipeService](i),
		Attribute: do.MustInvoke[*service.AttributeService](i),
		Search:    indexHandle.Index,
	}

	return api.NewServer(storeHandle.Store, services, storage, api.Options{
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		MetricsEnabled: cfg.Metrics.Enabled,
		AuthPerMinute:  cfg.RateLimit.AuthPerMinute,
		AuthBurst:      cfg.RateLimit.AuthBurst,
	}, log.Logger), nil
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	handler := do.MustInvoke[*api.Server](i)
	log := do.MustInvoke[*logger.Logger](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
