package formatter

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/lianhaeming/renoguard/internal/domain"
	"github.com/lianhaeming/renoguard/internal/scheduler"
	"github.com/lianhaeming/renoguard/internal/service"
)

const dateLayout = "2006-01-02"

// statusLabel renders an internal stage status for display.
func statusLabel(s domain.StageStatus) string {
	switch s {
	case domain.StagePending:
		return "pending"
	case domain.StageInProgress:
		return "in progress"
	case domain.StageCompleted:
		return "completed"
	case domain.StageRectify:
		return "needs rectification"
	case domain.StageRectifyDone:
		return "rectify closed"
	}
	return string(s)
}

// FormatScheduleTable renders the six-stage timeline with dates, status and
// sync markers. Locked stages are flagged so the user knows why an acceptance
// submission would be refused.
func FormatScheduleTable(state *domain.ScheduleState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project start: %s\n\n", state.StartDate.Format(dateLayout))

	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tSTART\tEND\tSTATUS\tNOTES")
	for _, st := range state.Stages {
		var notes []string
		if scheduler.IsLocked(st.OrderIndex, state.Stages) {
			notes = append(notes, "locked")
		}
		if st.CalibratedEnd != nil {
			notes = append(notes, "calibrated")
		}
		if st.PendingSync {
			notes = append(notes, "sync pending")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			st.Name,
			st.PlannedStart.Format(dateLayout),
			st.PlannedEnd.Format(dateLayout),
			statusLabel(st.Status),
			strings.Join(notes, ", "),
		)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// FormatDrift renders the disagreements between local planned end dates and
// the dates the backend reports. Empty input yields an empty string.
func FormatDrift(drift []service.StageDrift) string {
	if len(drift) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Schedule drift against backend:\n")
	for _, d := range drift {
		def, err := domain.StageByKey(d.Key)
		name := string(d.Key)
		if err == nil {
			name = def.Name
		}
		fmt.Fprintf(&b, "  %s: local end %s, backend reports %s\n",
			name, d.LocalEnd.Format(dateLayout), d.BackendEnd.Format(dateLayout))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatReconcile summarizes a reconcile pass.
func FormatReconcile(res *service.ReconcileResult) string {
	if len(res.Synced) == 0 && len(res.Remaining) == 0 {
		return "Nothing pending."
	}
	var parts []string
	if len(res.Synced) > 0 {
		parts = append(parts, fmt.Sprintf("Synced: %s", joinKeys(res.Synced)))
	}
	if len(res.Remaining) > 0 {
		parts = append(parts, fmt.Sprintf("Still queued: %s", joinKeys(res.Remaining)))
	}
	return strings.Join(parts, "\n")
}

func joinKeys(keys []domain.StageKey) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
