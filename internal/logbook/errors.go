package logbook

import "errors"

// Domain errors. All are expected, recoverable outcomes that the API
// layer maps to user-facing responses.
var (
	ErrSiteNotFound      = errors.New("site not found")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyCheckedOut = errors.New("entry already checked out")
	ErrNoOrganization    = errors.New("no organization selected")
)
