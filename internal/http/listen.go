package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// listen serves srv until it is shut down. ErrServerClosed is the normal exit.
func listen(ctx context.Context, srv *http.Server, name string, logger *slog.Logger) error {
	logger.InfoContext(ctx, "starting "+name, slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

// stop drains in-flight requests until ctx expires.
func stop(ctx context.Context, srv *http.Server, name string, logger *slog.Logger) error {
	logger.InfoContext(ctx, "shutting down "+name)
	return srv.Shutdown(ctx)
}
