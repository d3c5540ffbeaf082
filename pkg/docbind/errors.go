package docbind

import (
	"errors"
	"strings"
)

// Schema and document validation errors.
var (
	ErrNameMismatch                 = errors.New("name mismatch")
	ErrNodeNotFound                 = errors.New("node not found")
	ErrNodeAmbiguous                = errors.New("node ambiguous")
	ErrMissingAttribute             = errors.New("missing attribute")
	ErrAttributeCountMismatch       = errors.New("attribute count mismatch")
	ErrAttributeTypeMismatch        = errors.New("attribute type mismatch")
	ErrUnknownAttribute             = errors.New("unknown attribute")
	ErrUnsupportedAttributeKind     = errors.New("unsupported attribute kind")
	ErrInvalidEnumValue             = errors.New("invalid enum value")
	ErrMalformedValue               = errors.New("malformed value")
	ErrDuplicateAttributeDefinition = errors.New("duplicate attribute definition")
	ErrSelfReferentialSchema        = errors.New("self-referential schema")
	ErrInvalidSchema                = errors.New("invalid schema")
	ErrUnknownField                 = errors.New("unknown field")
	ErrValueTypeMismatch            = errors.New("value type mismatch")
	ErrUnsupportedOperation         = errors.New("unsupported operation")
)

// Tree and lifecycle errors.
var (
	ErrAmbiguousMatch         = errors.New("ambiguous match")
	ErrNotReadyToCommit       = errors.New("not ready to commit")
	ErrPrimaryFieldMutation   = errors.New("primary field mutation")
	ErrRemovedEntityMutation  = errors.New("removed entity mutation")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNothingToCommit is returned by [Entity.Commit] on an Unchanged entity.
	ErrNothingToCommit error = &stateError{msg: "nothing to commit"}

	// ErrAlreadyRemoved is returned by [Entity.Delete] on a Removed entity.
	ErrAlreadyRemoved error = &stateError{msg: "already removed"}
)

// Storage and cache errors.
var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrRecordExists      = errors.New("record exists")
	ErrInvalidKey        = errors.New("invalid key")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnsupportedSchema = errors.New("unsupported schema")

	// ErrInvariantViolation marks programming errors that correct callers never
	// observe. Treat it as non-recoverable.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrMultipleCacheMatches means the cache holds two live entities for one
	// key. It wraps [ErrInvariantViolation].
	ErrMultipleCacheMatches error = &invariantError{msg: "multiple cache matches"}
)

// stateError is a lifecycle sentinel that also matches ErrInvalidStateTransition.
type stateError struct{ msg string }

func (e *stateError) Error() string { return e.msg }

func (e *stateError) Unwrap() error { return ErrInvalidStateTransition }

type invariantError struct{ msg string }

func (e *invariantError) Error() string { return e.msg }

func (e *invariantError) Unwrap() error { return ErrInvariantViolation }

// Error is the uniform error type returned at docbind API boundaries.
//
// The underlying message comes first, followed by tree context:
//
//	node not found: given (schema=Identity path=Identity/name)
//
// Use [errors.As] to extract the fields and [errors.Is] for the sentinels.
type Error struct {
	// Schema is the declared name of the schema being processed.
	Schema string

	// Path is the slash separated element path, e.g. "Identity/phones/Phone[1]".
	Path string

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (schema=X path=Y)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	var parts []string

	if e.Schema != "" {
		parts = append(parts, "schema="+e.Schema)
	}

	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}

	if len(parts) == 0 {
		return cause
	}

	suffix := "(" + strings.Join(parts, " ") + ")"
	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// withContext attaches schema context at API boundaries and returns *Error.
// If err is already *Error, missing fields are filled in-place.
func withContext(err error, schema string, path string) error {
	if err == nil {
		return nil
	}

	existing := &Error{}
	if errors.As(err, &existing) {
		if existing.Schema == "" {
			existing.Schema = schema
		}

		if existing.Path == "" {
			existing.Path = path
		}

		return err
	}

	return &Error{Schema: schema, Path: path, Err: err}
}
