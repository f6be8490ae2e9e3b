// Package dataset loads tabular business data from CSV into a typed,
// date-sorted structure the metrics calculator consumes.
package dataset

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/metricmail-ai/metricmail/validate"
)

// DateColumn must be present in every input file.
const DateColumn = "Date"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

// Dataset holds date-sorted metric columns.
type Dataset struct {
	Dates   []time.Time
	columns map[string][]float64
	order   []string
}

// Load reads and validates a CSV file.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Read parses CSV data. It requires a Date column, keeps every other
// column that holds numeric data, and sorts rows by date ascending.
func Read(r io.Reader) (*Dataset, error) {
	df := dataframe.ReadCSV(r)
	if df.Err != nil {
		return nil, validate.Errorf("read csv: %v", df.Err)
	}
	if df.Nrow() == 0 {
		return nil, validate.Errorf("dataset is empty")
	}
	if check := validate.Columns(df.Names(), []string{DateColumn}); !check.OK {
		return nil, validate.Errorf("%s", check.Reason)
	}

	dates := make([]time.Time, df.Nrow())
	for i, record := range df.Col(DateColumn).Records() {
		parsed, err := parseDate(record)
		if err != nil {
			return nil, validate.Errorf("invalid date %q in row %d: %v", record, i+1, err)
		}
		dates[i] = parsed
	}

	// Sort all rows by date, preserving the original order of equal dates.
	index := make([]int, len(dates))
	for i := range index {
		index[i] = i
	}
	sort.SliceStable(index, func(a, b int) bool {
		return dates[index[a]].Before(dates[index[b]])
	})

	ds := &Dataset{
		Dates:   make([]time.Time, len(dates)),
		columns: make(map[string][]float64),
	}
	for i, idx := range index {
		ds.Dates[i] = dates[idx]
	}

	for _, name := range df.Names() {
		if name == DateColumn {
			continue
		}
		raw := df.Col(name).Float()
		if !anyFinite(raw) {
			continue
		}
		vals := make([]float64, len(raw))
		for i, idx := range index {
			vals[i] = raw[idx]
		}
		ds.columns[name] = vals
		ds.order = append(ds.order, name)
	}
	return ds, nil
}

// Len returns the number of rows.
func (ds *Dataset) Len() int {
	return len(ds.Dates)
}

// Has reports whether the dataset carries the named metric column.
func (ds *Dataset) Has(name string) bool {
	_, ok := ds.columns[name]
	return ok
}

// Column returns the values for the named column, or nil if absent.
// Rows that failed numeric coercion hold NaN.
func (ds *Dataset) Column(name string) []float64 {
	return ds.columns[name]
}

// Names returns the metric column names in file order.
func (ds *Dataset) Names() []string {
	return ds.order
}

// DateRange returns the first and last dates in the dataset.
func (ds *Dataset) DateRange() (time.Time, time.Time) {
	if len(ds.Dates) == 0 {
		return time.Time{}, time.Time{}
	}
	return ds.Dates[0], ds.Dates[len(ds.Dates)-1]
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func anyFinite(vals []float64) bool {
	for _, v := range vals {
		if v == v { // not NaN
			return true
		}
	}
	return false
}
