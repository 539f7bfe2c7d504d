// backend/src/parsers/smsbackup/parser.go
package smsbackup

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/username/smsledger/backend/src/models"
)

// smsElement mirrors one <sms> element of an SMS Backup & Restore export.
// Pointer fields stay nil when the attribute is absent, which is how absence
// is distinguished from an empty value downstream.
type smsElement struct {
	Protocol      *string `xml:"protocol,attr"`
	Address       *string `xml:"address,attr"`
	Date          *string `xml:"date,attr"`
	Type          *string `xml:"type,attr"`
	Subject       *string `xml:"subject,attr"`
	Body          *string `xml:"body,attr"`
	TOA           *string `xml:"toa,attr"`
	SCTOA         *string `xml:"sc_toa,attr"`
	ServiceCenter *string `xml:"service_center,attr"`
	Read          *string `xml:"read,attr"`
	Status        *string `xml:"status,attr"`
	Locked        *string `xml:"locked,attr"`
	DateSent      *string `xml:"date_sent,attr"`
	SubID         *string `xml:"sub_id,attr"`
	ReadableDate  *string `xml:"readable_date,attr"`
	ContactName   *string `xml:"contact_name,attr"`
}

// Parse decodes a backup document into its message records, in document
// order. Only <sms> elements that are direct children of the root element are
// considered; the root element name itself is not checked. Attribute values
// pass through verbatim with no semantic validation.
//
// A document that cannot be decoded yields a nil slice and an error wrapping
// ErrMalformedDocument. Decoding never panics out of this function.
func Parse(r io.Reader) (records []models.RawMessage, err error) {
	defer func() {
		if p := recover(); p != nil {
			records = nil
			err = fmt.Errorf("%w: unexpected failure during decoding: %v", ErrMalformedDocument, p)
		}
	}()

	decoder := xml.NewDecoder(r)

	inRoot := false
	for {
		tok, tokErr := decoder.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, tokErr)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !inRoot {
			inRoot = true
			continue
		}

		if start.Name.Local == "sms" {
			var el smsElement
			if decErr := decoder.DecodeElement(&el, &start); decErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, decErr)
			}
			records = append(records, models.RawMessage(el))
			continue
		}

		// Not a message element: skip the whole subtree so nested content
		// cannot be mistaken for a direct child later.
		if skipErr := decoder.Skip(); skipErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, skipErr)
		}
	}

	if !inRoot {
		return nil, fmt.Errorf("%w: document has no root element", ErrMalformedDocument)
	}
	return records, nil
}
