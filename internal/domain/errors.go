package domain

import "errors"

var (
	// ErrClaimNotFound is returned when a claim id has no persisted claim.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrUnknownSource is returned for a source outside the configured set.
	ErrUnknownSource = errors.New("unknown verification source")

	// ErrInvalidPayload is returned when a result payload does not decode
	// into its source's schema.
	ErrInvalidPayload = errors.New("invalid verification payload")

	// ErrInvalidClaim is returned when a submission fails validation.
	ErrInvalidClaim = errors.New("invalid claim")

	// ErrInvalidMessage is returned when a transport message cannot be decoded.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrStatusFinal is returned when a write would move a verified or
	// rejected claim.
	ErrStatusFinal = errors.New("claim status is final")
)

// IsPermanent reports whether err can never succeed on retry. Consumers
// commit past messages that fail with a permanent error instead of retrying.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrClaimNotFound) ||
		errors.Is(err, ErrUnknownSource) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrInvalidClaim) ||
		errors.Is(err, ErrInvalidMessage)
}
