package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
)

// FixtureFactory creates candidate fixtures with unique identities
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Candidate creates a fully populated candidate record
func (f *FixtureFactory) Candidate(opts ...func(*domain.CandidateRecord)) *domain.CandidateRecord {
	seq := f.nextSeq()
	c := &domain.CandidateRecord{
		Name:           fmt.Sprintf("Candidate %d", seq),
		Email:          fmt.Sprintf("candidate%d@example.com", seq),
		Phone:          fmt.Sprintf("98765%05d", seq),
		College:        "Anna University",
		Degree:         "B.TECH",
		Department:     "Computer Science",
		State:          "Tamil Nadu",
		District:       "Chennai",
		YearPassing:    "2023",
		SourceFilename: fmt.Sprintf("resume_%d.pdf", seq),
		LastUpdated:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithEmail sets the candidate email
func WithEmail(email string) func(*domain.CandidateRecord) {
	return func(c *domain.CandidateRecord) { c.Email = email }
}

// WithPhone sets the candidate phone
func WithPhone(phone string) func(*domain.CandidateRecord) {
	return func(c *domain.CandidateRecord) { c.Phone = phone }
}

// WithCollege sets the candidate college
func WithCollege(college string) func(*domain.CandidateRecord) {
	return func(c *domain.CandidateRecord) { c.College = college }
}

// WriteDOCX writes a minimal Word document with one w:p per paragraph and
// returns its path.
func WriteDOCX(t *testing.T, dir, name string, paragraphs ...string) string {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		body.WriteString(xmlEscape(p))
		body.WriteString(`</w:t></w:r></w:p>`)
	}

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() +
			`</w:body></w:document>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range []string{"[Content_Types].xml", "_rels/.rels", "word/_rels/document.xml.rels", "word/document.xml"} {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatalf("docx fixture: %v", err)
		}
		if _, err := w.Write([]byte(files[n])); err != nil {
			t.Fatalf("docx fixture: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("docx fixture: %v", err)
	}
	return WriteFile(t, dir, name, buf.Bytes())
}

// WritePDF writes a PDF with one page per argument. Lines inside a page are
// separated by "\n". Text is set in the standard Helvetica font.
func WritePDF(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	return WriteFile(t, dir, name, BuildPDF(pages...))
}

// BuildPDF assembles the PDF bytes with a correct cross-reference table
func BuildPDF(pages ...string) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // patched below once the page tree id is known
	pagesID := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, page := range pages {
		var content strings.Builder
		content.WriteString("BT /F1 12 Tf 14 TL 72 720 Td")
		for i, line := range strings.Split(page, "\n") {
			if i > 0 {
				content.WriteString(" T*")
			}
			content.WriteString(" (" + pdfEscape(line) + ") Tj")
		}
		content.WriteString(" ET")

		stream := content.String()
		contentID := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
		pageID := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesID, font, contentID))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
	}
	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID)
	objects[pagesID-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return buf.Bytes()
}

// PNGBytes encodes a small white PNG
func PNGBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png fixture: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes content under dir and returns the full path
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func pdfEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
