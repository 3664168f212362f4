package envelope

import "errors"

var (
	// ErrMalformedAttributes is returned when an attribute section does not
	// split into exactly five fields.
	ErrMalformedAttributes = errors.New("envelope: malformed attributes")
	// ErrMalformedEnvelope is returned when a frame has fewer than two '$'
	// delimiters or carries malformed attributes.
	ErrMalformedEnvelope = errors.New("envelope: malformed envelope")
	// ErrDelimiterInField is returned by Validate when an address or attribute
	// field contains the delimiter that encloses it.
	ErrDelimiterInField = errors.New("envelope: delimiter in field")
)
