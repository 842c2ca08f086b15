package commands

import (
	"context"
	"fmt"
	"io"

	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
	vaultUsecase "github.com/allisson/datavault/internal/vault/usecase"
)

type statsJSON struct {
	Total              int64 `json:"total"`
	V1                 int64 `json:"v1"`
	V2                 int64 `json:"v2"`
	Migrated           int64 `json:"migrated"`
	Failed             int64 `json:"failed"`
	PercentageComplete int   `json:"percentage_complete"`
}

func toStatsJSON(stats *vaultDomain.MigrationStats) statsJSON {
	return statsJSON{
		Total:              stats.Total,
		V1:                 stats.V1,
		V2:                 stats.V2,
		Migrated:           stats.Migrated,
		Failed:             stats.Failed,
		PercentageComplete: stats.PercentageComplete,
	}
}

// RunEncryptionStats prints how many entries are stored per encryption version.
func RunEncryptionStats(
	ctx context.Context,
	migrationUseCase vaultUsecase.MigrationUseCase,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	stats, err := migrationUseCase.GetMigrationStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration stats: %w", err)
	}

	if format == FormatJSON {
		return writeJSON(writer, toStatsJSON(stats))
	}
	outputStatsText(writer, stats)
	return nil
}

func outputStatsText(writer io.Writer, stats *vaultDomain.MigrationStats) {
	_, _ = fmt.Fprintf(writer, "Encryption Status\n")
	_, _ = fmt.Fprintf(writer, "=================\n\n")
	_, _ = fmt.Fprintf(writer, "Total entries:  %d\n", stats.Total)
	_, _ = fmt.Fprintf(writer, "v1 (legacy):    %d\n", stats.V1)
	_, _ = fmt.Fprintf(writer, "v2 (envelope):  %d\n", stats.V2)
	_, _ = fmt.Fprintf(writer, "Failed:         %d\n", stats.Failed)
	_, _ = fmt.Fprintf(writer, "Complete:       %d%%\n", stats.PercentageComplete)
}
