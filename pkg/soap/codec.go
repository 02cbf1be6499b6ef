// Package soap implements the wire codec for the KOS request/response
// protocol: flat request structures wrapped in a SOAP 1.1 envelope, and
// envelope-tolerant extraction of the response body.
package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	pkgerrors "KosBridge/pkg/errors"
)

const (
	envelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	xsiNS      = "http://www.w3.org/2001/XMLSchema-instance"
	xsdNS      = "http://www.w3.org/2001/XMLSchema"
)

// Codec translates between structured values and enveloped XML. It is
// stateless and safe for concurrent use.
type Codec struct{}

// NewCodec creates a Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode marshals v and wraps it in a SOAP envelope. v determines the body
// element via its XMLName field or struct name.
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	inner, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("soap: encode request body: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<soap:Envelope xmlns:soap="` + envelopeNS + `" xmlns:xsi="` + xsiNS + `" xmlns:xsd="` + xsdNS + `">`)
	buf.WriteString(`<soap:Body>`)
	buf.Write(inner)
	buf.WriteString(`</soap:Body></soap:Envelope>`)
	return buf.Bytes(), nil
}

// Decode locates the Body element of an enveloped response, regardless of
// namespace prefix or surrounding envelope metadata, and unmarshals the first
// element inside it into out. Responses that arrive without an envelope are
// unmarshaled directly. All parse failures are reported as a DecodeError
// carrying the endpoint name.
func (c *Codec) Decode(endpoint string, data []byte, out interface{}) error {
	payload, err := extractBody(data)
	if err != nil {
		return pkgerrors.NewDecode(endpoint, err)
	}
	if err := xml.Unmarshal(payload, out); err != nil {
		return pkgerrors.NewDecode(endpoint, err)
	}
	return nil
}

// extractBody returns the raw XML of the first element inside the SOAP Body,
// or the input unchanged when no envelope is present.
func extractBody(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	root, err := nextStartElement(dec)
	if err != nil {
		return nil, fmt.Errorf("no XML content: %w", err)
	}
	if root.Name.Local != "Envelope" {
		// Bare payload without an envelope.
		return data, nil
	}

	for {
		start, err := nextStartElement(dec)
		if err != nil {
			return nil, fmt.Errorf("missing Body element: %w", err)
		}
		if start.Name.Local != "Body" {
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("malformed envelope: %w", err)
			}
			continue
		}

		inner, err := nextStartElement(dec)
		if err != nil {
			return nil, fmt.Errorf("empty Body element: %w", err)
		}
		if inner.Name.Local == "Fault" {
			return nil, decodeFault(dec, inner)
		}
		return rawElement(dec, inner)
	}
}

// decodeFault turns a soap:Fault body into an error so a fault is never
// silently unmarshaled into a zero-valued response.
func decodeFault(dec *xml.Decoder, start xml.StartElement) error {
	var fault struct {
		Code   string `xml:"faultcode"`
		String string `xml:"faultstring"`
	}
	if err := dec.DecodeElement(&fault, &start); err != nil {
		return fmt.Errorf("malformed Fault element: %w", err)
	}
	if fault.String == "" {
		fault.String = "unspecified fault"
	}
	if fault.Code != "" {
		return fmt.Errorf("fault %s: %s", fault.Code, fault.String)
	}
	return fmt.Errorf("fault: %s", fault.String)
}

// nextStartElement advances the decoder to the next start element.
func nextStartElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return xml.StartElement{}, io.ErrUnexpectedEOF
			}
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

// rawElement re-serializes the element at start, consuming it from dec.
// Namespace prefixes are dropped so the result can be unmarshaled into plain
// structs.
func rawElement(dec *xml.Decoder, start xml.StartElement) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	depth := 1
	if err := enc.EncodeToken(stripNamespace(start)); err != nil {
		return nil, err
	}
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("truncated element %s: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			tok = stripNamespace(t)
		case xml.EndElement:
			depth--
			tok = xml.EndElement{Name: xml.Name{Local: t.Name.Local}}
		}
		if err := enc.EncodeToken(tok); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stripNamespace removes namespace info from a start element, including its
// attributes' xmlns declarations.
func stripNamespace(start xml.StartElement) xml.StartElement {
	out := xml.StartElement{Name: xml.Name{Local: start.Name.Local}}
	for _, attr := range start.Attr {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		out.Attr = append(out.Attr, xml.Attr{
			Name:  xml.Name{Local: attr.Name.Local},
			Value: attr.Value,
		})
	}
	return out
}
