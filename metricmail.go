package metricmail

import (
	"math"
	"strconv"
	"strings"
)

// KPI is a single computed business metric.
type KPI struct {
	// Key is a stable identifier, e.g. "total_revenue".
	Key string

	// Label is the display name, e.g. "Total Revenue".
	Label string

	// Prefix is prepended to the displayed value ("$" for currency).
	Prefix string

	// Suffix is appended to the displayed value ("%" for growth rates).
	Suffix string

	Value float64
}

// IsGrowth reports whether the KPI is a period-over-period growth rate.
func (k KPI) IsGrowth() bool {
	return strings.HasSuffix(k.Key, "_growth")
}

// FormattedValue returns the value with thousands separators and two
// decimal places. Infinite growth (previous period was zero) displays
// as "n/a".
func (k KPI) FormattedValue() string {
	if math.IsInf(k.Value, 0) || math.IsNaN(k.Value) {
		return "n/a"
	}
	return formatThousands(k.Value)
}

// Display returns the fully decorated value, e.g. "$1,234.56" or "+5.60%".
func (k KPI) Display() string {
	value := k.FormattedValue()
	if value == "n/a" {
		return value
	}
	if k.IsGrowth() && k.Value > 0 {
		value = "+" + value
	}
	return k.Prefix + value + k.Suffix
}

// Color returns the display color for the KPI value. Growth rates are
// green when positive and red when negative.
func (k KPI) Color() string {
	if !k.IsGrowth() || math.IsInf(k.Value, 0) {
		return "#2c3e50"
	}
	switch {
	case k.Value > 0:
		return "#0a8554"
	case k.Value < 0:
		return "#c53030"
	default:
		return "#2c3e50"
	}
}

// Chart is a rendered trend chart for one metric column.
type Chart struct {
	Column string
	Title  string
	PNG    []byte
}

func formatThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + fracPart
}
