// Package commands implements the fulfillment CLI subcommands. Each Run function takes its
// collaborators explicitly so it can be driven from tests without a container.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/cuenty/fulfillment/internal/app"
)

// IOTuple is the input and output a command reads from and writes to.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO wires a command to the process's stdin and stdout.
func DefaultIO() IOTuple {
	return IOTuple{Reader: os.Stdin, Writer: os.Stdout}
}

func closeContainer(container *app.Container, logger *slog.Logger) {
	err := container.Shutdown(context.Background())
	if err == nil {
		return
	}
	logger.Error("container shutdown finished with errors", slog.Any("error", err))
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := m.Close()
	if err := errors.Join(sourceErr, databaseErr); err != nil {
		logger.Error("failed to close migrations", slog.Any("error", err))
	}
}

// writeJSON prints v as indented JSON. Encoding failures go to stderr so stdout stays parseable.
func writeJSON(writer io.Writer, v any) {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
	}
}
