package extract

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Text extracts plain text from an uploaded document, dispatched on
// the filename extension. An empty string with nil error means the
// document had no extractable text.
func Text(content []byte, filename string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return fromPDF(content)
	case "docx":
		return fromDOCX(content)
	case "csv":
		return fromCSV(content)
	case "txt":
		return strings.TrimSpace(string(content)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func fromPDF(content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func fromDOCX(content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx failed: %w", err)
	}
	defer reader.Close()

	return stripDocxXML(reader.Editable().GetContent()), nil
}

// stripDocxXML flattens word/document.xml markup into paragraph-broken
// plain text.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return strings.TrimSpace(raw)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func fromCSV(content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	var buf strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv failed: %w", err)
		}
		buf.WriteString(strings.Join(record, " | "))
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String()), nil
}
