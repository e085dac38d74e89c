package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	"github.com/cuenty/fulfillment/internal/automation/http/dto"
	automationUseCase "github.com/cuenty/fulfillment/internal/automation/usecase"
)

// RunAutomationStats prints workflow totals, executions per outcome and the most
// executed workflows.
func RunAutomationStats(
	ctx context.Context,
	automation automationUseCase.AutomationUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	stats, err := automation.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load automation statistics: %w", err)
	}

	if format == "json" {
		writeJSON(writer, dto.MapStatisticsToResponse(stats))
	} else {
		outputStatsText(stats, writer)
	}

	logger.Debug("automation statistics printed", slog.Int64("executions", stats.TotalExecutions))
	return nil
}

func outputStatsText(stats *automationDomain.Statistics, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Workflows: %d (%d active)\n", stats.TotalWorkflows, stats.ActiveWorkflows)
	_, _ = fmt.Fprintf(writer, "Executions: %d\n", stats.TotalExecutions)

	if len(stats.ByOutcome) > 0 {
		_, _ = fmt.Fprintln(writer, "\nBy outcome:")
		for _, o := range stats.ByOutcome {
			_, _ = fmt.Fprintf(writer, "  %-8s %6d  avg %.1fms\n", o.Outcome, o.Count, o.AvgDurationMs)
		}
	}

	if len(stats.TopWorkflows) > 0 {
		_, _ = fmt.Fprintln(writer, "\nTop workflows:")
		for _, w := range stats.TopWorkflows {
			_, _ = fmt.Fprintf(writer, "  %s  %-30s %-20s %d\n", w.ID, w.Name, w.TriggerEvent, w.ExecutionCount)
		}
	}
}
