package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	auditUsecase "github.com/allisson/datavault/internal/audit/usecase"
)

type chainReportJSON struct {
	UserID        string `json:"user_id"`
	EventCount    int    `json:"event_count"`
	Valid         bool   `json:"valid"`
	BrokenAt      int    `json:"broken_at"`
	BrokenEventID string `json:"broken_event_id,omitempty"`
}

// RunVerifyAuditChain recomputes the hash chain of one user, or of every user
// when userID is empty. Returns an error if any chain is broken.
func RunVerifyAuditChain(
	ctx context.Context,
	auditUseCase auditUsecase.AuditUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	var reports []*auditDomain.ChainReport
	if userID != "" {
		report, err := auditUseCase.VerifyUserChain(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to verify audit chain: %w", err)
		}
		reports = append(reports, report)
	} else {
		all, err := auditUseCase.VerifyAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to verify audit chains: %w", err)
		}
		reports = all
	}

	broken := 0
	for _, report := range reports {
		if !report.Valid {
			broken++
		}
	}

	if format == FormatJSON {
		out := make([]chainReportJSON, 0, len(reports))
		for _, r := range reports {
			item := chainReportJSON{UserID: r.UserID, EventCount: r.EventCount, Valid: r.Valid, BrokenAt: r.BrokenAt}
			if !r.Valid {
				item.BrokenEventID = r.BrokenEventID.String()
			}
			out = append(out, item)
		}
		if err := writeJSON(writer, map[string]any{
			"chains": out,
			"broken": broken,
			"passed": broken == 0,
		}); err != nil {
			return err
		}
	} else {
		outputChainText(writer, reports, broken)
	}

	logger.Info("audit chain verification completed",
		slog.Int("chains", len(reports)),
		slog.Int("broken", broken),
	)

	if broken > 0 {
		return fmt.Errorf("integrity check failed: %d broken audit chain(s)", broken)
	}
	return nil
}

func outputChainText(writer io.Writer, reports []*auditDomain.ChainReport, broken int) {
	_, _ = fmt.Fprintf(writer, "Audit Chain Verification\n")
	_, _ = fmt.Fprintf(writer, "========================\n\n")

	for _, r := range reports {
		if r.Valid {
			_, _ = fmt.Fprintf(writer, "  %-36s  %6d events  OK\n", r.UserID, r.EventCount)
			continue
		}
		_, _ = fmt.Fprintf(writer, "  %-36s  %6d events  BROKEN at #%d (event %s)\n",
			r.UserID, r.EventCount, r.BrokenAt, r.BrokenEventID)
	}

	switch {
	case len(reports) == 0:
		_, _ = fmt.Fprintf(writer, "No audit events found\n")
	case broken > 0:
		_, _ = fmt.Fprintf(writer, "\nStatus: FAILED (%d of %d chains broken)\n", broken, len(reports))
	default:
		_, _ = fmt.Fprintf(writer, "\nStatus: PASSED (%d chains)\n", len(reports))
	}
}
