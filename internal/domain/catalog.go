package domain

import "fmt"

// StageKey identifies one of the six fixed renovation stages.
type StageKey string

const (
	StageMaterial     StageKey = "material"
	StagePlumbing     StageKey = "plumbing"
	StageMasonry      StageKey = "masonry"
	StageCarpentry    StageKey = "carpentry"
	StagePainting     StageKey = "painting"
	StageInstallation StageKey = "installation"
)

// StageCount is the fixed number of renovation stages.
const StageCount = 6

// StageDef is the static definition of one renovation stage.
type StageDef struct {
	Key          StageKey
	Name         string
	OrderIndex   int
	DurationDays int
	BackendCode  string
}

// catalog lists the six stages in construction order. The set is closed:
// stages are never created or removed at runtime.
var catalog = []StageDef{
	{Key: StageMaterial, Name: "Material Intake", OrderIndex: 0, DurationDays: 3, BackendCode: "S00"},
	{Key: StagePlumbing, Name: "Plumbing & Hidden Works", OrderIndex: 1, DurationDays: 7, BackendCode: "S01"},
	{Key: StageMasonry, Name: "Masonry", OrderIndex: 2, DurationDays: 10, BackendCode: "S02"},
	{Key: StageCarpentry, Name: "Carpentry", OrderIndex: 3, DurationDays: 7, BackendCode: "S03"},
	{Key: StagePainting, Name: "Painting", OrderIndex: 4, DurationDays: 7, BackendCode: "S04"},
	{Key: StageInstallation, Name: "Installation", OrderIndex: 5, DurationDays: 5, BackendCode: "S05"},
}

// Stages returns the stage definitions in display order.
// Callers receive a copy and may not mutate the catalog.
func Stages() []StageDef {
	out := make([]StageDef, len(catalog))
	copy(out, catalog)
	return out
}

// StageByKey looks up a stage definition by its key.
func StageByKey(key StageKey) (StageDef, error) {
	for _, def := range catalog {
		if def.Key == key {
			return def, nil
		}
	}
	return StageDef{}, fmt.Errorf("%w: %q", ErrUnknownStage, key)
}

// BackendCode returns the backend short code (S00..S05) for a stage key.
func BackendCode(key StageKey) (string, error) {
	def, err := StageByKey(key)
	if err != nil {
		return "", err
	}
	return def.BackendCode, nil
}

// KeyFromBackendCode resolves a backend short code to an internal stage key.
func KeyFromBackendCode(code string) (StageKey, error) {
	for _, def := range catalog {
		if def.BackendCode == code {
			return def.Key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStageCode, code)
}
