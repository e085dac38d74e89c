package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	inventoryUseCase "github.com/cuenty/fulfillment/internal/inventory/usecase"
)

// CredentialImporter adds credentials to the pool.
type CredentialImporter interface {
	Import(ctx context.Context, inputs []inventoryUseCase.ImportInput) (int, error)
}

// RunImportCredentials reads a JSON array of credentials and adds them to the pool in
// one transaction. Passwords are sealed with the configured keeper before storage.
//
// Requirements: Database must be migrated and accessible.
func RunImportCredentials(
	ctx context.Context,
	importer CredentialImporter,
	logger *slog.Logger,
	io IOTuple,
	format string,
) error {
	var inputs []inventoryUseCase.ImportInput
	if err := json.NewDecoder(io.Reader).Decode(&inputs); err != nil {
		return fmt.Errorf("failed to parse credentials JSON: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("at least one credential is required")
	}

	logger.Info("importing credentials", slog.Int("count", len(inputs)))

	imported, err := importer.Import(ctx, inputs)
	if err != nil {
		return fmt.Errorf("failed to import credentials: %w", err)
	}

	if format == "json" {
		writeJSON(io.Writer, map[string]any{"imported": imported})
	} else {
		_, _ = fmt.Fprintf(io.Writer, "Imported %d credential(s)\n", imported)
	}

	logger.Info("credentials imported", slog.Int("imported", imported))
	return nil
}
