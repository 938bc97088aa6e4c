package inspection

import "errors"

// Validation failures. They are recoverable locally and never reach the store.
var (
	ErrEmptyTitle       = errors.New("defect title is empty")
	ErrMissingRoom      = errors.New("room is required")
	ErrMissingInspector = errors.New("inspector is required")
	ErrUnknownRoom      = errors.New("room is not in the registry")
	ErrInvalidGrade     = errors.New("grade must be A, B or C")
	ErrInvalidTeam      = errors.New("team must be water or bed")
	ErrInvalidSlot      = errors.New("staff slot must be bed or water")
	ErrNoPhoto          = errors.New("draft has no photo")
	ErrDuplicateEntry   = errors.New("defect entry id is repeated")
)

var validationErrors = []error{
	ErrEmptyTitle,
	ErrMissingRoom,
	ErrMissingInspector,
	ErrUnknownRoom,
	ErrInvalidGrade,
	ErrInvalidTeam,
	ErrInvalidSlot,
	ErrNoPhoto,
	ErrDuplicateEntry,
}

// IsValidation reports whether err is one of the package's validation errors.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
