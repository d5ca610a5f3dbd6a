package model

// ResolutionOutcome is the result of classifying one profile-page fetch.
// It is a closed sum type: the unexported marker method keeps the variant
// set fixed so that switches over outcomes stay exhaustive when a new
// variant is added.
//
// Exactly one outcome is produced per crawl id per run. Outcomes are
// immutable values and are never merged across runs.
type ResolutionOutcome interface {
	// Label returns the string recorded in the web request audit log.
	// For Success this is the resolved name itself; for OtherError it is
	// the underlying message; for the remaining variants it is the
	// variant name.
	Label() string

	// Kind returns the variant name, independent of per-variant detail.
	// Report queries group audit rows by it.
	Kind() string

	isResolutionOutcome()
}

// Success means the page rendered a non-empty profile heading.
// Name holds the heading text, which is the person's display name.
type Success struct {
	Name string
}

// PermissionDenied means the page showed the "information about this user
// is not available to you" banner.
type PermissionDenied struct{}

// UserDeleted means the page showed the "user account has been deleted"
// banner.
type UserDeleted struct{}

// InvalidUser means the page showed the "invalid user" banner.
type InvalidUser struct{}

// NotFound means the page had neither an error banner nor a profile
// heading.
type NotFound struct{}

// OtherError covers every remaining case: a non-success HTTP status, an
// unrecognized banner text, or a fetch/parse failure. Message carries the
// detail. OtherError is a valid terminal classification, not a pipeline
// error; it never counts toward the crawl failure threshold.
type OtherError struct {
	Message string
}

// Label implements ResolutionOutcome.
func (s Success) Label() string { return s.Name }

// Label implements ResolutionOutcome.
func (PermissionDenied) Label() string { return "PermissionDenied" }

// Label implements ResolutionOutcome.
func (UserDeleted) Label() string { return "UserDeleted" }

// Label implements ResolutionOutcome.
func (InvalidUser) Label() string { return "InvalidUser" }

// Label implements ResolutionOutcome.
func (NotFound) Label() string { return "NotFound" }

// Label implements ResolutionOutcome.
func (e OtherError) Label() string { return e.Message }

// Kind implements ResolutionOutcome.
func (Success) Kind() string { return "Success" }

// Kind implements ResolutionOutcome.
func (PermissionDenied) Kind() string { return "PermissionDenied" }

// Kind implements ResolutionOutcome.
func (UserDeleted) Kind() string { return "UserDeleted" }

// Kind implements ResolutionOutcome.
func (InvalidUser) Kind() string { return "InvalidUser" }

// Kind implements ResolutionOutcome.
func (NotFound) Kind() string { return "NotFound" }

// Kind implements ResolutionOutcome.
func (OtherError) Kind() string { return "OtherError" }

func (Success) isResolutionOutcome()          {}
func (PermissionDenied) isResolutionOutcome() {}
func (UserDeleted) isResolutionOutcome()      {}
func (InvalidUser) isResolutionOutcome()      {}
func (NotFound) isResolutionOutcome()         {}
func (OtherError) isResolutionOutcome()       {}
