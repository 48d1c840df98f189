package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"avidoc/internal/model"
)

// ParseError reports an unreadable or unsupported file. Upload handling
// surfaces it per file so one bad file never fails the whole batch.
type ParseError struct {
	File   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.File, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Chapter marks a section heading and its rune offset into the extracted
// text, so chunks can carry the chapter they fall under.
type Chapter struct {
	Title string
	Start int
}

// NamedValue is a numeric key/value pair extracted from the text, the raw
// material for cross-document consistency checks.
type NamedValue struct {
	Name  string
	Value float64
	Unit  string
	Raw   string
}

// Parsed is the output of parsing one uploaded file: plain text plus
// best-effort structural metadata.
type Parsed struct {
	Text       string
	Title      string
	DocNumber  string
	Type       string
	Version    int
	Status     string
	IssueDate  string
	Chapters   []Chapter
	Parameters []NamedValue
	Metadata   map[string]any
}

// Parse extracts text and metadata from raw file bytes. The format is taken
// from the file extension: .json (structured data), .xml (markup),
// .pdf (page layout), .docx (word processor); anything else is read as
// UTF-8 plain text.
func Parse(filename string, data []byte) (*Parsed, error) {
	if len(data) == 0 {
		return nil, &ParseError{File: filename, Reason: "file is empty"}
	}

	var (
		parsed *Parsed
		err    error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		parsed, err = parseJSON(filename, data)
	case ".xml":
		parsed, err = parseXML(filename, data)
	case ".pdf":
		parsed, err = parsePDF(filename, data)
	case ".docx":
		parsed, err = parseDOCX(filename, data)
	default:
		parsed, err = parsePlainText(filename, data)
	}
	if err != nil {
		return nil, err
	}

	parsed.Text = strings.TrimSpace(parsed.Text)
	if parsed.Text == "" {
		return nil, &ParseError{File: filename, Reason: "no extractable text"}
	}

	fillDefaults(parsed, filename)
	return parsed, nil
}

func parsePlainText(filename string, data []byte) (*Parsed, error) {
	if !utf8.Valid(data) {
		return nil, &ParseError{File: filename, Reason: "undetectable format (not valid UTF-8 text)"}
	}
	return &Parsed{Text: string(data)}, nil
}

// fillDefaults backfills metadata the format-specific parser did not supply,
// using text heuristics.
func fillDefaults(p *Parsed, filename string) {
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	if p.Title == "" {
		p.Title = firstLine(p.Text)
	}
	if p.Title == "" {
		p.Title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if p.DocNumber == "" {
		p.DocNumber = findDocNumber(p.Text)
	}
	if p.IssueDate == "" {
		p.IssueDate = findIssueDate(p.Text)
	}
	if p.Type == "" || !model.ValidDocType(p.Type) {
		p.Type = detectType(p.Title + " " + filename)
	}
	if p.Status == "" {
		p.Status = model.DocStatusActive
	}
	if p.Version <= 0 {
		p.Version = 1
	}
	if len(p.Chapters) == 0 {
		p.Chapters = findChapters(p.Text)
	}
	if len(p.Parameters) == 0 {
		p.Parameters = ExtractParameters(p.Text)
	}
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 256 {
			line = line[:256]
		}
		return line
	}
	return ""
}

var docNumberRe = regexp.MustCompile(`(?i)\b(GOST|OST|TU|STO|ESKD|ESTD|STD|DOC|SPEC|DWG)[ -]?(\d[\d.\-]*)`)

func findDocNumber(text string) string {
	m := docNumberRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + "-" + strings.TrimRight(m[2], ".-")
}

var (
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dmyDateRe = regexp.MustCompile(`\b(\d{2})\.(\d{2})\.(\d{4})\b`)
)

func findIssueDate(text string) string {
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	if m := dmyDateRe.FindStringSubmatch(text); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	return ""
}

func detectType(hint string) string {
	hint = strings.ToLower(hint)
	switch {
	case strings.Contains(hint, "spec"):
		return model.DocTypeSpecification
	case strings.Contains(hint, "standard") || strings.Contains(hint, "gost"):
		return model.DocTypeStandard
	case strings.Contains(hint, "drawing") || strings.Contains(hint, "dwg"):
		return model.DocTypeDrawing
	case strings.Contains(hint, "manual"):
		return model.DocTypeManual
	case strings.Contains(hint, "process"):
		return model.DocTypeTechProcess
	default:
		return model.DocTypeReport
	}
}

var chapterRe = regexp.MustCompile(`(?m)^(?:#{1,3}\s+.+|\d+(?:\.\d+)*\.?\s+\S.{2,120}|(?:Chapter|Section)\s+\d+.*)$`)

// findChapters locates heading-like lines and records their rune offsets.
func findChapters(text string) []Chapter {
	locs := chapterRe.FindAllStringIndex(text, -1)
	chapters := make([]Chapter, 0, len(locs))
	for _, loc := range locs {
		title := strings.TrimSpace(strings.TrimLeft(text[loc[0]:loc[1]], "# "))
		if title == "" {
			continue
		}
		chapters = append(chapters, Chapter{
			Title: title,
			Start: utf8.RuneCountInString(text[:loc[0]]),
		})
	}
	return chapters
}

// ChapterAt returns the title of the last chapter starting at or before the
// given rune offset, or "" when the offset precedes every heading.
func ChapterAt(chapters []Chapter, offset int) string {
	title := ""
	for _, ch := range chapters {
		if ch.Start > offset {
			break
		}
		title = ch.Title
	}
	return title
}
