package envelope

import "encoding/json"

// Well-known content types.
const (
	ContentTypeLMCP = "lmcp"
	ContentTypeJSON = "json"
	ContentTypeXML  = "xml"
)

type envelopeJSON struct {
	Address         string `json:"address"`
	ContentType     string `json:"content_type"`
	Descriptor      string `json:"descriptor"`
	SenderGroup     string `json:"sender_group"`
	SenderEntityID  string `json:"sender_entity_id"`
	SenderServiceID string `json:"sender_service_id"`
	PayloadSize     int    `json:"payload_size"`
}

// MarshalJSON renders the envelope metadata and the payload size.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeJSON{
		Address:         e.Address(),
		ContentType:     e.attributes.ContentType(),
		Descriptor:      e.attributes.Descriptor(),
		SenderGroup:     e.attributes.SenderGroup(),
		SenderEntityID:  e.attributes.SenderEntityID(),
		SenderServiceID: e.attributes.SenderServiceID(),
		PayloadSize:     e.payload.Len(),
	})
}
