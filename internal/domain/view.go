package domain

import "fmt"

// ViewMode selects which list the presentation layer renders and exports.
type ViewMode string

// View modes. Grid and Table render the accumulated result set; Saved
// renders the persistent saved set.
const (
	ViewGrid  ViewMode = "grid"
	ViewTable ViewMode = "table"
	ViewSaved ViewMode = "saved"
)

// ParseViewMode validates a view mode label.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewGrid, ViewTable, ViewSaved:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown view mode %q", ErrInvalidQuery, s)
}

// ShowsSaved reports whether the mode renders the saved set rather than the
// accumulated result set.
func (m ViewMode) ShowsSaved() bool { return m == ViewSaved }
