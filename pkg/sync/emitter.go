package sync

import (
	"encoding/json"
	"io"

	"github.com/bkuipers/sherpa-sync/pkg/soap"
)

// jsonMessage is the wire shape of one emitted record.
type jsonMessage struct {
	Stream string      `json:"stream"`
	Record soap.Record `json:"record"`
}

// JSONEmitter writes one JSON object per record to an io.Writer, newline
// delimited.
type JSONEmitter struct {
	enc *json.Encoder
}

// NewJSONEmitter creates a JSON lines emitter.
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{enc: json.NewEncoder(w)}
}

// Emit implements Emitter.
func (e *JSONEmitter) Emit(stream string, record soap.Record) error {
	return e.enc.Encode(jsonMessage{Stream: stream, Record: record})
}
