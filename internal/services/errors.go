package services

import "errors"

// Failure taxonomy surfaced to the HTTP layer. Handlers map these with
// errors.Is; none of them are retried by the services themselves.
var (
	// ErrInvalidUser means there is no usable authenticated user id.
	ErrInvalidUser = errors.New("invalid user")

	// ErrBackendUnavailable means a read against the document store failed.
	// It is never collapsed into "eligible".
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrUploadFailed means the blob write failed; no metadata was written.
	ErrUploadFailed = errors.New("upload failed")

	// ErrMetadataWriteFailed means the entry document write failed after a
	// successful blob upload, leaving an orphaned blob.
	ErrMetadataWriteFailed = errors.New("metadata write failed")

	// ErrAlreadyPosted means an entry already exists for the current local day.
	ErrAlreadyPosted = errors.New("already posted today")

	// ErrInvalidImage means the submitted bytes could not be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")

	// ErrInvalidCredentials means login failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken means the requested username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
)
