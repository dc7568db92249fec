package formatter

import (
	"fmt"
	"strings"

	"github.com/lianhaeming/renoguard/internal/domain"
)

// FormatAcceptanceRecord renders a stage's acceptance record.
func FormatAcceptanceRecord(rec *domain.AcceptanceRecord) string {
	var b strings.Builder
	def, err := domain.StageByKey(rec.StageKey)
	name := string(rec.StageKey)
	if err == nil {
		name = def.Name
	}
	fmt.Fprintf(&b, "Acceptance for %s\n", name)
	fmt.Fprintf(&b, "  Result:    %s\n", rec.Result)
	fmt.Fprintf(&b, "  Severity:  %s\n", rec.Severity)
	fmt.Fprintf(&b, "  Rechecks:  %d/%d\n", rec.RecheckCount, domain.MaxRecheckAttempts)
	if rec.Appeal != domain.AppealNone {
		fmt.Fprintf(&b, "  Appeal:    %s\n", rec.Appeal)
		if rec.AppealReason != "" {
			fmt.Fprintf(&b, "  Reason:    %s\n", rec.AppealReason)
		}
	}
	if rec.ManualOverride {
		b.WriteString("  Passed by manual owner sign-off\n")
	}
	if rec.AppealRevised {
		b.WriteString("  Revised by approved appeal\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStageLog renders the recorded status changes for a stage.
func FormatStageLog(entries []domain.StageLogEntry) string {
	if len(entries) == 0 {
		return "No status changes recorded."
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %s -> %s (%s)\n",
			e.Timestamp.Format("2006-01-02 15:04"), e.From, e.To, e.Origin)
	}
	return strings.TrimRight(b.String(), "\n")
}
