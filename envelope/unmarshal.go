package envelope

import (
	"bytes"
	"fmt"
)

// Unmarshal decodes one complete frame into envelope. Only the first two '$'
// are structural; everything after the second is payload, verbatim.
func Unmarshal(data []byte, envelope *Envelope) error {
	// Address
	i := bytes.IndexByte(data, Delimiter)
	if i < 0 {
		return fmt.Errorf("%w: missing address delimiter", ErrMalformedEnvelope)
	}
	address, rest := data[:i], data[i+1:]

	// Attributes
	j := bytes.IndexByte(rest, Delimiter)
	if j < 0 {
		return fmt.Errorf("%w: missing attributes delimiter", ErrMalformedEnvelope)
	}
	attributes, err := ParseAttributes(rest[:j])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	envelope.address = bytes.Clone(address)
	envelope.attributes = *attributes
	envelope.payload = EnvelopePayload{Payload: bytes.Clone(rest[j+1:])}

	return nil
}
