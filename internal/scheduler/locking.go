package scheduler

import "github.com/lianhaeming/renoguard/internal/domain"

// IsLocked reports whether user-facing actions on the stage at the given
// order index are disabled. Stage 0 is never locked; any later stage is
// locked until its predecessor reaches completed or rectify_done. Every
// screen must consult this predicate instead of re-deriving the rule.
func IsLocked(stageIndex int, stages []domain.Stage) bool {
	if stageIndex <= 0 {
		return false
	}
	if stageIndex >= len(stages) {
		return true
	}
	return !stages[stageIndex-1].Status.Terminal()
}

// UnlockedKeys returns the keys of all stages currently actionable, in order.
func UnlockedKeys(stages []domain.Stage) []domain.StageKey {
	var keys []domain.StageKey
	for i, st := range stages {
		if !IsLocked(i, stages) {
			keys = append(keys, st.Key)
		}
	}
	return keys
}
