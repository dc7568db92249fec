package cli

import (
	"fmt"
	"strings"

	"github.com/lianhaeming/renoguard/internal/domain"
)

// resolveStageKey turns user input into a stage key. Accepts the stage key
// ("plumbing"), the backend code ("S01") or a unique key prefix ("plumb").
func resolveStageKey(input string) (domain.StageKey, error) {
	if input == "" {
		return "", fmt.Errorf("stage is required")
	}

	if key, err := domain.KeyFromBackendCode(strings.ToUpper(input)); err == nil {
		return key, nil
	}

	lower := strings.ToLower(input)
	if _, err := domain.StageByKey(domain.StageKey(lower)); err == nil {
		return domain.StageKey(lower), nil
	}

	var matches []domain.StageKey
	for _, def := range domain.Stages() {
		if strings.HasPrefix(string(def.Key), lower) {
			matches = append(matches, def.Key)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("stage not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("stage prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}
