package envelope

import (
	"bytes"
	"fmt"
)

const (
	// Delimiter separates the address, attributes and payload of a frame.
	Delimiter byte = '$'

	defaultAddressSize = 30
	defaultHeaderSize  = defaultAddressSize + defaultAttributesSize
)

// Envelope is an addressed, attributed message:
//
//	<address>$<content type>|<descriptor>|<group>|<entity id>|<service id>$<payload>
//
// The address and the encoded attributes must not contain '$'. The payload is
// opaque and may hold any byte.
type Envelope struct {
	address    []byte
	attributes Attributes
	payload    EnvelopePayload
}

// New returns an empty envelope.
func New() *Envelope {
	return &Envelope{}
}

func (e *Envelope) SetAddress(v string)         { e.address = []byte(v) }
func (e *Envelope) SetContentType(v string)     { e.attributes.SetContentType(v) }
func (e *Envelope) SetDescriptor(v string)      { e.attributes.SetDescriptor(v) }
func (e *Envelope) SetSenderGroup(v string)     { e.attributes.SetSenderGroup(v) }
func (e *Envelope) SetSenderEntityID(v string)  { e.attributes.SetSenderEntityID(v) }
func (e *Envelope) SetSenderServiceID(v string) { e.attributes.SetSenderServiceID(v) }

// Address returns the routing address as text.
func (e *Envelope) Address() string { return text(e.address) }

// AddressBytes returns the raw routing address.
func (e *Envelope) AddressBytes() []byte { return e.address }

// Attributes returns the attribute block owned by the envelope.
func (e *Envelope) Attributes() *Attributes { return &e.attributes }

// Bytes encodes the envelope into a single frame. The envelope is not
// modified.
func (e *Envelope) Bytes() []byte {
	attrs := e.attributes.Bytes()
	b := make([]byte, 0, len(e.address)+len(attrs)+len(e.payload.Payload)+2)
	b = append(b, e.address...)
	b = append(b, Delimiter)
	b = append(b, attrs...)
	b = append(b, Delimiter)
	b = append(b, e.payload.Bytes()...)
	return b
}

func (e *Envelope) NewReader() *bytes.Reader {
	return bytes.NewReader(e.Bytes())
}

// Validate checks that the address and attributes are free of the delimiters
// that frame them. Encoding an envelope that fails validation produces a
// frame that parses differently or not at all.
func (e *Envelope) Validate() error {
	if bytes.IndexByte(e.address, Delimiter) >= 0 {
		return fmt.Errorf("%w: address contains %q", ErrDelimiterInField, Delimiter)
	}
	if err := e.attributes.Validate(); err != nil {
		return err
	}
	if bytes.IndexByte(e.attributes.Bytes(), Delimiter) >= 0 {
		return fmt.Errorf("%w: attributes contain %q", ErrDelimiterInField, Delimiter)
	}
	return nil
}

// Equal reports whether both envelopes carry the same bytes in every field.
func (e *Envelope) Equal(o *Envelope) bool {
	return bytes.Equal(e.address, o.address) &&
		e.attributes.Equal(&o.attributes) &&
		bytes.Equal(e.payload.Payload, o.payload.Payload)
}

// String renders the address and attributes for diagnostics. The payload is
// left out.
func (e *Envelope) String() string {
	return text(e.address) + string(Delimiter) + e.attributes.String()
}
