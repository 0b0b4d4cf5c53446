package textextract

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/testutil"
)

func TestExtract_DOCXParagraphOrder(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDOCX(t, dir, "cv.docx", "ASHA DEVI", "asha@example.com", "B.E & M.E")

	got := New(logger.Nop()).Extract(context.Background(), path, domain.KindDOCX)

	assert.Equal(t, "ASHA DEVI\nasha@example.com\nB.E & M.E", got)
}

func TestExtract_PDFPagesInOrder(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePDF(t, dir, "cv.pdf", "RAJ KUMAR\nChennai", "raj@example.com")

	got := New(logger.Nop()).Extract(context.Background(), path, domain.KindPDF)

	require.Contains(t, got, "RAJ KUMAR")
	require.Contains(t, got, "raj@example.com")
	assert.Less(t, strings.Index(got, "RAJ KUMAR"), strings.Index(got, "raj@example.com"))
}

func TestExtract_UnreadableFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	ex := New(logger.NewWithWriter("test", &logs))

	garbage := testutil.WriteFile(t, dir, "broken.pdf", []byte("not a pdf at all"))
	assert.Equal(t, "", ex.Extract(context.Background(), garbage, domain.KindPDF))

	notZip := testutil.WriteFile(t, dir, "broken.docx", []byte("PK but not really"))
	assert.Equal(t, "", ex.Extract(context.Background(), notZip, domain.KindDOCX))

	assert.Equal(t, "", ex.Extract(context.Background(), dir+"/missing.pdf", domain.KindPDF))
	assert.Contains(t, logs.String(), "could not read document")
}

func TestExtract_ImageKindIsNotText(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "cv.png", testutil.PNGBytes(t))

	assert.Equal(t, "", New(logger.Nop()).Extract(context.Background(), path, domain.KindPNG))
}

func TestParagraphsFromXML(t *testing.T) {
	t.Run("runs tabs and breaks", func(t *testing.T) {
		xml := `<w:document xmlns:w="w"><w:body>` +
			`<w:p><w:r><w:t>Asha</w:t></w:r><w:r><w:t xml:space="preserve"> Devi</w:t></w:r></w:p>` +
			`<w:p/>` +
			`<w:p><w:r><w:t>Skills</w:t><w:tab/><w:t>Go</w:t><w:br/><w:t>SQL</w:t></w:r></w:p>` +
			`</w:body></w:document>`

		got, err := paragraphsFromXML(xml)
		require.NoError(t, err)
		assert.Equal(t, []string{"Asha Devi", "", "Skills\tGo\nSQL"}, got)
	})

	t.Run("text outside paragraphs is ignored", func(t *testing.T) {
		got, err := paragraphsFromXML(`<w:document xmlns:w="w"><w:t>stray</w:t><w:p><w:r><w:t>kept</w:t></w:r></w:p></w:document>`)
		require.NoError(t, err)
		assert.Equal(t, []string{"kept"}, got)
	})

	t.Run("truncated document keeps complete paragraphs", func(t *testing.T) {
		got, err := paragraphsFromXML(`<w:document xmlns:w="w"><w:p><w:r><w:t>one</w:t></w:r></w:p><w:p><w:r><w:t>tw`)
		assert.Error(t, err)
		assert.Equal(t, []string{"one"}, got)
	})
}
