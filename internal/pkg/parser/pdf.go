package parser

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

func parsePDF(filename string, data []byte) (*Parsed, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{File: filename, Reason: "unreadable PDF", Err: err}
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, &ParseError{File: filename, Reason: "extract PDF text failed", Err: err}
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return nil, &ParseError{File: filename, Reason: "read PDF text failed", Err: err}
	}
	return &Parsed{Text: string(out)}, nil
}
