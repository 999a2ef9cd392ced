package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterTable() Table {
	t := Table{Title: "Daftar Akun", Columns: []Column{{Header: "Nama", Weight: 2}, {Header: "Email", Weight: 3}, {Header: "Peran"}}}
	t.AddRow("Siti Aminah", "siti@example.com", "siswa")
	t.AddRow("Budi", "budi@example.com")
	return t
}

func TestCSVWritesHeaderAndPaddedRows(t *testing.T) {
	data, err := CSV(rosterTable(), CSVOptions{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Nama,Email,Peran", lines[0])
	assert.Equal(t, "Budi,budi@example.com,", lines[2])
}

func TestCSVOptions(t *testing.T) {
	data, err := CSV(rosterTable(), CSVOptions{BOM: true, Separator: ';'})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), "Nama;Email;Peran")
}

func TestTableValidation(t *testing.T) {
	_, err := CSV(Table{Title: "kosong"}, CSVOptions{})
	require.Error(t, err)

	bad := Table{Columns: []Column{{Header: "A"}}, Rows: [][]string{{"1", "2"}}}
	_, err = PDF(bad, PDFOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
}

func TestWidthsFollowWeights(t *testing.T) {
	w := rosterTable().widths(180)
	assert.InDelta(t, 60, w[0], 0.001)
	assert.InDelta(t, 90, w[1], 0.001)
	assert.InDelta(t, 30, w[2], 0.001)
}

func TestPDFProducesDocument(t *testing.T) {
	data, err := PDF(rosterTable(), PDFOptions{Landscape: true, GeneratedAt: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
