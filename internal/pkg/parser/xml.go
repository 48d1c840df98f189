package parser

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// parseXML walks the element tree depth-first and joins text content with
// paragraph breaks. Known metadata attributes on the root element
// (doc_number, title, issue_date, type, status) are honored.
func parseXML(filename string, data []byte) (*Parsed, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	parsed := &Parsed{Metadata: map[string]any{}}

	var parts []string
	depth := 0
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{File: filename, Reason: "invalid XML", Err: err}
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				for _, attr := range t.Attr {
					switch strings.ToLower(attr.Name.Local) {
					case "doc_number", "number":
						parsed.DocNumber = attr.Value
					case "title", "name":
						parsed.Title = attr.Value
					case "issue_date", "date":
						parsed.IssueDate = attr.Value
					case "type":
						parsed.Type = attr.Value
					case "status":
						parsed.Status = attr.Value
					}
				}
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text != "" {
				parts = append(parts, text)
			}
		}
	}

	parsed.Text = strings.Join(parts, "\n\n")
	return parsed, nil
}
