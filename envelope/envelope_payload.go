package envelope

// EnvelopePayload is the opaque message carried after the second delimiter.
type EnvelopePayload struct {
	Payload []byte
}

func (p *EnvelopePayload) Bytes() []byte {
	return p.Payload
}

func (p *EnvelopePayload) Len() int {
	return len(p.Payload)
}

// Payload returns the payload bytes.
func (e *Envelope) Payload() []byte {
	return e.payload.Bytes()
}

// SetPayload stores the payload. The slice is kept, not copied.
func (e *Envelope) SetPayload(v []byte) {
	e.payload = EnvelopePayload{Payload: v}
}
