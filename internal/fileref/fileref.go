// Package fileref describes a user-selected resume file. Inspection is
// informational: nothing here rejects a file.
package fileref

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"resume-analyzer-web/internal/analysis"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrTooLarge is returned when a file exceeds the caller's byte limit.
var ErrTooLarge = errors.New("file too large")

// Ref is a selected file held in memory.
type Ref struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	MIME string `json:"mime"`

	// Pages is the PDF page count, Words the DOCX word count. Zero when unknown.
	Pages int `json:"pages,omitempty"`
	Words int `json:"words,omitempty"`
	// InspectErr records why inspection failed; it never blocks analysis.
	InspectErr string `json:"inspectError,omitempty"`

	Data []byte `json:"-"`
}

// FromBytes builds a Ref and inspects its content.
func FromBytes(name string, data []byte) *Ref {
	ref := &Ref{
		Name: filepath.Base(strings.TrimSpace(name)),
		Size: int64(len(data)),
		Data: data,
	}
	ref.MIME = detectMimeType(name, data)
	ref.inspect()
	return ref
}

// FromFile reads a file from disk.
func FromFile(path string) (*Ref, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(filepath.Base(path), data), nil
}

// FromMultipart reads an uploaded form file, refusing more than maxBytes.
func FromMultipart(fh *multipart.FileHeader, maxBytes int64) (*Ref, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, fmt.Errorf("%s: %w", fh.Filename, ErrTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s: %w", fh.Filename, ErrTooLarge)
	}
	return FromBytes(fh.Filename, data), nil
}

// Upload converts the Ref into the payload sent to the analysis service.
func (r *Ref) Upload() analysis.Upload {
	return analysis.Upload{
		FileName:    r.Name,
		ContentType: r.MIME,
		Data:        r.Data,
	}
}

// Summary is a one-line description for logs and the page.
func (r *Ref) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)", r.Name, r.MIME, humanSize(r.Size))
	switch {
	case r.Pages > 0:
		fmt.Fprintf(&b, ", %d page(s)", r.Pages)
	case r.Words > 0:
		fmt.Fprintf(&b, ", %d word(s)", r.Words)
	}
	return b.String()
}

func (r *Ref) inspect() {
	var err error
	switch r.MIME {
	case mimePDF:
		r.Pages, err = countPDFPages(r.Data)
	case mimeDOCX:
		r.Words, err = countDOCXWords(r.Data)
	}
	if err != nil {
		r.InspectErr = err.Error()
	}
}

func countPDFPages(data []byte) (n int, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("read pdf: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return reader.NumPage(), nil
}

func countDOCXWords(data []byte) (int, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()
	text := stripDocxXML(doc.Editable().GetContent())
	return len(strings.Fields(text)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func detectMimeType(fileName string, data []byte) string {
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	detected := strings.ToLower(strings.TrimSpace(strings.Split(http.DetectContentType(sniff), ";")[0]))
	if detected != "application/zip" {
		if detected == "application/octet-stream" || detected == "text/plain" {
			if byExt := mimeFromExt(fileName); byExt != "" {
				return byExt
			}
		}
		return detected
	}
	if isDOCXArchive(data) {
		return mimeDOCX
	}
	if byExt := mimeFromExt(fileName); byExt != "" {
		return byExt
	}
	return detected
}

func mimeFromExt(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDOCX
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	default:
		return ""
	}
}

func isDOCXArchive(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
