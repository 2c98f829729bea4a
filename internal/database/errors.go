package database

import "errors"

var (
	// ErrFindingNotFound is returned when a review decision references a
	// fingerprint that matches no stored finding.
	ErrFindingNotFound = errors.New("finding not found")

	// ErrAmbiguousFingerprint is returned when a fingerprint prefix is too
	// short or matches more than one stored finding.
	ErrAmbiguousFingerprint = errors.New("ambiguous fingerprint prefix")
)
