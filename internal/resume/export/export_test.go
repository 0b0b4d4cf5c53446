package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/testutil"
)

type staticLister struct {
	candidates []*domain.CandidateRecord
	err        error
}

func (s staticLister) List(context.Context) ([]*domain.CandidateRecord, error) {
	return s.candidates, s.err
}

func sample() []*domain.CandidateRecord {
	f := testutil.NewFixtureFactory()
	return []*domain.CandidateRecord{
		f.Candidate(testutil.WithEmail("asha@example.com"), testutil.WithPhone("9876543210")),
		f.Candidate(testutil.WithCollege(domain.NotSpecified)),
	}
}

func TestJSON_KeysInColumnOrder(t *testing.T) {
	data, err := JSON(Rows(sample()[:1]))
	require.NoError(t, err)

	out := string(data)
	prev := -1
	for _, key := range Headers {
		idx := strings.Index(out, `"`+key+`"`)
		require.GreaterOrEqual(t, idx, 0, key)
		assert.Greater(t, idx, prev, "key %q out of order", key)
		prev = idx
	}
	assert.Contains(t, out, `"Contact": "9876543210"`)
	assert.Contains(t, out, `"Last Updated": "2024-01-01T00:00:00Z"`)
	assert.Contains(t, out, "\n        \"Name\"", "four-space indent")
}

func TestJSON_EmptyIsArray(t *testing.T) {
	data, err := JSON(Rows(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestXLSX_HeaderAndRows(t *testing.T) {
	data, err := XLSX(Rows(sample()))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Candidates")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "asha@example.com", rows[1][2])
	assert.Equal(t, domain.NotSpecified, rows[2][5])
	assert.Equal(t, "resume_2.pdf", rows[2][9])
	assert.Equal(t, "2024-01-01T00:00:00Z", rows[2][10])
}

func TestRows_LastUpdatedKeepsMicroseconds(t *testing.T) {
	c := testutil.NewFixtureFactory().Candidate()
	c.LastUpdated = time.Date(2024, 3, 5, 10, 30, 0, 123456000, time.FixedZone("IST", 19800))

	rows := Rows([]*domain.CandidateRecord{c})
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-03-05T05:00:00.123456Z", rows[0].LastUpdated)
}

func TestExporter_Export(t *testing.T) {
	e := NewExporter(staticLister{candidates: sample()}, logger.Nop())

	jsonFile, err := e.Export(context.Background(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "Resume_Data_Detailed.json", jsonFile.Name)
	assert.Equal(t, "application/json", jsonFile.ContentType)

	xlsxFile, err := e.Export(context.Background(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "Resume_Data_Detailed.xlsx", xlsxFile.Name)
	assert.True(t, bytes.HasPrefix(xlsxFile.Data, []byte("PK")), "xlsx is a zip archive")

	_, err = e.Export(context.Background(), Format("csv"))
	assert.Error(t, err)
}

func TestExporter_ListError(t *testing.T) {
	e := NewExporter(staticLister{err: errors.New("connection refused")}, logger.Nop())
	_, err := e.Export(context.Background(), FormatJSON)
	assert.ErrorContains(t, err, "connection refused")
}
