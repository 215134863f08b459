// Package streams declares the Sherpa entity catalog: one descriptor per
// changed-entity operation, consumed by the shared pagination engine.
//
// Descriptors are plain data plus three small capabilities (build an
// envelope, filter a record, derive a child context); there is no per-entity
// pagination code.
package streams

import (
	"github.com/bkuipers/sherpa-sync/pkg/soap"
)

// FieldType is the semantic type of a schema field. Values are raw strings on
// the wire; the type describes how a consumer should coerce them.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeBoolean  FieldType = "boolean"
	TypeDateTime FieldType = "date-time"
)

// Field is one entry of a stream's ordered schema.
type Field struct {
	Name string
	Type FieldType
}

// EnvelopeParams carries everything an envelope builder may interpolate.
type EnvelopeParams struct {
	// SecurityCode is the service credential, included in every envelope.
	SecurityCode string

	// Token is the continuation token for paginated operations.
	Token string

	// Count is the requested page size.
	Count int

	// WarehouseGroupCode parameterizes ChangedStockByWarehousegroupCode.
	WarehouseGroupCode string

	// Context is the parent-supplied sync context for child lookups
	// (e.g. {"client_code": "X"} or {"purchase_number": "Y"}).
	Context map[string]string
}

// Descriptor identifies one Sherpa entity and how to fetch it.
type Descriptor struct {
	// Name is the stream name as exposed to consumers.
	Name string

	// Operation is the SOAP operation name; the response wraps its payload in
	// an "<Operation>Response" element.
	Operation string

	// ItemsKey is the element name under which items are nested.
	ItemsKey string

	// Schema is the ordered field schema.
	Schema []Field

	// PrimaryKeys uniquely identify a record. Never empty.
	PrimaryKeys []string

	// ReplicationKey names the token-bearing field used for bookmarking.
	// Empty for streams without incremental state (child lookups).
	ReplicationKey string

	// PageSize is the per-page item count. Zero means the configured default.
	PageSize int

	// Paginate is false for single-shot lookups that take no token.
	Paginate bool

	// Parent names the stream whose records drive this one. Empty for
	// top-level streams.
	Parent string

	// BuildEnvelope renders the request payload for one page.
	BuildEnvelope func(p EnvelopeParams) string

	// Filter reports whether a record should be emitted. Nil keeps all.
	Filter func(rec soap.Record) bool

	// ChildContext projects a parent record into the context handed to child
	// streams. Nil for streams without children; returns nil when the record
	// has no derivable key.
	ChildContext func(rec soap.Record) map[string]string
}

// HasBookmark reports whether the stream maintains a replication bookmark.
func (d *Descriptor) HasBookmark() bool {
	return d.ReplicationKey != ""
}
