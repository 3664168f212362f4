package envelope

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	// AttributeDelimiter separates the fields of an attribute section.
	AttributeDelimiter byte = '|'
	// AttributeCount is the exact number of fields in an attribute section.
	AttributeCount = 5

	defaultAttributesSize = 50
)

// Attributes describes the payload of an envelope and where it came from.
//
// Fields are kept as raw bytes. Setters copy the bytes of the given text and
// the text accessors decode them leniently.
type Attributes struct {
	contentType     []byte
	descriptor      []byte
	senderGroup     []byte
	senderEntityID  []byte
	senderServiceID []byte
}

func (a *Attributes) SetContentType(v string)     { a.contentType = []byte(v) }
func (a *Attributes) SetDescriptor(v string)      { a.descriptor = []byte(v) }
func (a *Attributes) SetSenderGroup(v string)     { a.senderGroup = []byte(v) }
func (a *Attributes) SetSenderEntityID(v string)  { a.senderEntityID = []byte(v) }
func (a *Attributes) SetSenderServiceID(v string) { a.senderServiceID = []byte(v) }

func (a *Attributes) ContentType() string     { return text(a.contentType) }
func (a *Attributes) Descriptor() string      { return text(a.descriptor) }
func (a *Attributes) SenderGroup() string     { return text(a.senderGroup) }
func (a *Attributes) SenderEntityID() string  { return text(a.senderEntityID) }
func (a *Attributes) SenderServiceID() string { return text(a.senderServiceID) }

// EntityID parses the sender entity id as an unsigned integer.
func (a *Attributes) EntityID() (uint64, error) {
	id, err := strconv.ParseUint(string(a.senderEntityID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("envelope: sender entity id: %w", err)
	}
	return id, nil
}

// ServiceID parses the sender service id as an unsigned integer.
func (a *Attributes) ServiceID() (uint64, error) {
	id, err := strconv.ParseUint(string(a.senderServiceID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("envelope: sender service id: %w", err)
	}
	return id, nil
}

func (a *Attributes) fields() [AttributeCount][]byte {
	return [AttributeCount][]byte{
		a.contentType,
		a.descriptor,
		a.senderGroup,
		a.senderEntityID,
		a.senderServiceID,
	}
}

// Bytes encodes the attributes as five '|' separated fields. No escaping is
// done; a field holding '|' yields a section that will not parse back.
func (a *Attributes) Bytes() []byte {
	b := make([]byte, 0, defaultAttributesSize)
	for i, f := range a.fields() {
		if i > 0 {
			b = append(b, AttributeDelimiter)
		}
		b = append(b, f...)
	}
	return b
}

// Validate reports ErrDelimiterInField if any field contains '|'.
func (a *Attributes) Validate() error {
	names := [AttributeCount]string{"content type", "descriptor", "sender group", "sender entity id", "sender service id"}
	for i, f := range a.fields() {
		if bytes.IndexByte(f, AttributeDelimiter) >= 0 {
			return fmt.Errorf("%w: %s contains %q", ErrDelimiterInField, names[i], AttributeDelimiter)
		}
	}
	return nil
}

// Equal reports whether both attribute sets hold the same bytes.
func (a *Attributes) Equal(o *Attributes) bool {
	af, of := a.fields(), o.fields()
	for i := range af {
		if !bytes.Equal(af[i], of[i]) {
			return false
		}
	}
	return true
}

func (a *Attributes) String() string {
	return text(a.Bytes())
}

// ParseAttributes decodes an attribute section. It fails unless splitting on
// '|' yields exactly five chunks.
func ParseAttributes(data []byte) (*Attributes, error) {
	chunks := bytes.Split(data, []byte{AttributeDelimiter})
	if len(chunks) != AttributeCount {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedAttributes, len(chunks), AttributeCount)
	}

	return &Attributes{
		contentType:     bytes.Clone(chunks[0]),
		descriptor:      bytes.Clone(chunks[1]),
		senderGroup:     bytes.Clone(chunks[2]),
		senderEntityID:  bytes.Clone(chunks[3]),
		senderServiceID: bytes.Clone(chunks[4]),
	}, nil
}

// text renders stored bytes for display, replacing invalid UTF-8.
func text(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
