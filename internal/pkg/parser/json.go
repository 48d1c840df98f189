package parser

import (
	"encoding/json"
	"strings"
)

// jsonDocument covers both supported JSON shapes: a flat document object
// with declared metadata, and the chat-export shape whose documents carry
// text_entities.
type jsonDocument struct {
	DocID     string         `json:"doc_id"`
	DocNumber string         `json:"doc_number"`
	DocName   string         `json:"doc_name"`
	Title     string         `json:"title"`
	Type      string         `json:"type"`
	Version   int            `json:"version"`
	Status    string         `json:"status"`
	IssueDate string         `json:"issue_date"`
	Content   string         `json:"content"`
	Text      string         `json:"text"`
	Chapter   string         `json:"doc_chapter"`
	Metadata  map[string]any `json:"metadata"`

	TextEntities []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"text_entities"`
}

type jsonFile struct {
	jsonDocument
	Documents []jsonDocument `json:"documents"`
}

func parseJSON(filename string, data []byte) (*Parsed, error) {
	var file jsonFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &ParseError{File: filename, Reason: "invalid JSON", Err: err}
	}

	if len(file.Documents) == 0 {
		return flattenJSONDocument(&file.jsonDocument), nil
	}

	// Export shape: concatenate documents, keeping chapter boundaries.
	merged := &Parsed{Metadata: map[string]any{}}
	var sb strings.Builder
	for _, doc := range file.Documents {
		text := jsonDocumentText(&doc)
		if text == "" {
			continue
		}
		if doc.Chapter != "" {
			merged.Chapters = append(merged.Chapters, Chapter{
				Title: doc.Chapter,
				Start: runeLen(sb.String()),
			})
		}
		if merged.Title == "" && doc.DocName != "" {
			merged.Title = doc.DocName
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	merged.Text = sb.String()
	first := file.Documents[0]
	merged.DocNumber = firstNonEmpty(first.DocNumber, first.DocID)
	merged.Type = first.Type
	merged.Status = first.Status
	merged.IssueDate = first.IssueDate
	merged.Version = first.Version
	return merged, nil
}

func flattenJSONDocument(doc *jsonDocument) *Parsed {
	return &Parsed{
		Text:      jsonDocumentText(doc),
		Title:     firstNonEmpty(doc.Title, doc.DocName),
		DocNumber: firstNonEmpty(doc.DocNumber, doc.DocID),
		Type:      doc.Type,
		Version:   doc.Version,
		Status:    doc.Status,
		IssueDate: doc.IssueDate,
		Metadata:  doc.Metadata,
	}
}

func jsonDocumentText(doc *jsonDocument) string {
	if doc.Content != "" {
		return doc.Content
	}
	if doc.Text != "" {
		return doc.Text
	}
	var parts []string
	for _, entity := range doc.TextEntities {
		if entity.Type == "plain" && strings.TrimSpace(entity.Text) != "" {
			parts = append(parts, strings.TrimSpace(entity.Text))
		}
	}
	return strings.Join(parts, "\n\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
