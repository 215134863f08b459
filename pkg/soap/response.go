package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Record is one item as returned by the service: field name to raw value.
// Type coercion is the consumer's responsibility.
type Record map[string]string

// Page is the decoded result of one request/response cycle.
type Page struct {
	// Items in the order the service returned them.
	Items []Record

	// Token is the continuation token of this page: the Token field of the
	// last item. Empty when the page carried no items or the items have no
	// Token field (non-paginated lookups).
	Token string
}

// ParsePage decodes a Sherpa SOAP response body into a Page.
//
// The expected shape is a SOAP 1.2 envelope whose body contains an
// "<operation>Response" element wrapping zero or more elements named itemsKey,
// one per item. Each direct child of an item element becomes a record field;
// nested element content is flattened to its character data.
//
// A SOAP fault yields ErrServiceFault. A body that is not XML, or that lacks
// the "<operation>Response" element, yields ErrMalformedResponse. A response
// with zero items is a valid empty page.
func ParsePage(body []byte, operation, itemsKey string) (*Page, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	page := &Page{}
	sawResponse := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s response: %v", ErrMalformedResponse, operation, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "Fault":
			reason, err := faultReason(decoder, start)
			if err != nil {
				return nil, fmt.Errorf("%w: decode %s fault: %v", ErrMalformedResponse, operation, err)
			}
			return nil, fmt.Errorf("%w: %s: %s", ErrServiceFault, operation, reason)

		case operation + "Response":
			sawResponse = true

		case itemsKey:
			if !sawResponse {
				continue
			}
			record, err := decodeItem(decoder, start)
			if err != nil {
				return nil, fmt.Errorf("%w: decode %s item: %v", ErrMalformedResponse, operation, err)
			}
			page.Items = append(page.Items, record)
			if token, ok := record["Token"]; ok {
				page.Token = token
			}
		}
	}

	if !sawResponse {
		return nil, fmt.Errorf("%w: missing %sResponse element", ErrMalformedResponse, operation)
	}

	return page, nil
}

// decodeItem reads one item element into a Record. Each direct child element
// contributes one field; its value is the flattened character data of the
// child's subtree.
func decodeItem(decoder *xml.Decoder, start xml.StartElement) (Record, error) {
	record := Record{}

	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			value, err := flattenElement(decoder, t)
			if err != nil {
				return nil, err
			}
			record[t.Name.Local] = value
		case xml.EndElement:
			if t.Name == start.Name {
				return record, nil
			}
		}
	}
}

// flattenElement consumes an element subtree and returns its concatenated
// character data, trimmed.
func flattenElement(decoder *xml.Decoder, start xml.StartElement) (string, error) {
	var sb strings.Builder
	depth := 1

	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

// faultReason extracts a human-readable reason from a SOAP fault element.
// Both SOAP 1.1 (faultstring) and SOAP 1.2 (Reason/Text) shapes are handled.
func faultReason(decoder *xml.Decoder, start xml.StartElement) (string, error) {
	reason := ""
	depth := 1

	var current string
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			current = t.Name.Local
		case xml.EndElement:
			depth--
			current = ""
		case xml.CharData:
			if current == "faultstring" || current == "Text" {
				if text := strings.TrimSpace(string(t)); text != "" {
					reason = text
				}
			}
		}
	}

	if reason == "" {
		reason = "unknown fault"
	}
	return reason, nil
}

// Escape returns s with XML special characters escaped, for safe interpolation
// into envelope templates.
func Escape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails on writer errors; bytes.Buffer never fails.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
