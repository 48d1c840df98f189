package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// parseDOCX reads the OOXML package directly: text from word/document.xml,
// title from docProps/core.xml when present.
func parseDOCX(filename string, data []byte) (*Parsed, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{File: filename, Reason: "not a DOCX archive", Err: err}
	}

	text, err := docxDocumentText(reader)
	if err != nil {
		return nil, &ParseError{File: filename, Reason: "extract DOCX text failed", Err: err}
	}

	return &Parsed{
		Text:  text,
		Title: docxCoreTitle(reader),
	}, nil
}

func docxDocumentText(reader *zip.Reader) (string, error) {
	file := findZipFile(reader, "word/document.xml")
	if file == nil {
		return "", io.ErrUnexpectedEOF
	}
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var sb strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

func docxCoreTitle(reader *zip.Reader) string {
	file := findZipFile(reader, "docProps/core.xml")
	if file == nil {
		return ""
	}
	rc, err := file.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.NewDecoder(rc).Decode(&core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

func findZipFile(reader *zip.Reader, name string) *zip.File {
	for _, f := range reader.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
