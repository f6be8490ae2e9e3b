package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metricmail-ai/metricmail/validate"
)

const sampleCSV = `Date,Revenue,Sales,Region
2024-01-03,300.5,30,east
2024-01-01,100.0,10,west
2024-01-02,200.25,20,north
`

func TestReadSortsByDate(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	first, last := ds.DateRange()
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), last)

	require.True(t, ds.Has("Revenue"))
	assert.Equal(t, []float64{100.0, 200.25, 300.5}, ds.Column("Revenue"))
	assert.Equal(t, []float64{10, 20, 30}, ds.Column("Sales"))
}

func TestReadSkipsNonNumericColumns(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.False(t, ds.Has("Region"))
	assert.Equal(t, []string{"Revenue", "Sales"}, ds.Names())
	assert.Nil(t, ds.Column("Region"))
}

func TestReadMissingDateColumn(t *testing.T) {
	_, err := Read(strings.NewReader("Revenue,Sales\n100,10\n"))
	require.Error(t, err)

	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "Date")
}

func TestReadEmptyData(t *testing.T) {
	_, err := Read(strings.NewReader("Date,Revenue\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestReadBadDate(t *testing.T) {
	_, err := Read(strings.NewReader("Date,Revenue\nnot-a-date,100\n"))
	require.Error(t, err)

	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestReadAlternateDateLayouts(t *testing.T) {
	ds, err := Read(strings.NewReader("Date,Revenue\n2024/02/01,50\n01/15/2024,25\n"))
	require.NoError(t, err)
	first, last := ds.DateRange()
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), last)
}

func TestReadMixedNumericColumn(t *testing.T) {
	ds, err := Read(strings.NewReader("Date,Revenue\n2024-01-01,100\n2024-01-02,bad\n2024-01-03,300\n"))
	require.NoError(t, err)

	vals := ds.Column("Revenue")
	require.Len(t, vals, 3)
	assert.Equal(t, 100.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]))
	assert.Equal(t, 300.0, vals[2])
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
