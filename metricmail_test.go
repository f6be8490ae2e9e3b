package metricmail

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKPIFormattedValue(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"small", 42.0, "42.00"},
		{"thousands", 50000.0, "50,000.00"},
		{"millions", 1234567.891, "1,234,567.89"},
		{"negative", -1234.5, "-1,234.50"},
		{"infinite", math.Inf(1), "n/a"},
		{"nan", math.NaN(), "n/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kpi := KPI{Value: tt.value}
			assert.Equal(t, tt.want, kpi.FormattedValue())
		})
	}
}

func TestKPIDisplay(t *testing.T) {
	revenue := KPI{Key: "total_revenue", Label: "Total Revenue", Prefix: "$", Value: 50000}
	assert.Equal(t, "$50,000.00", revenue.Display())

	up := KPI{Key: "revenue_growth", Label: "Revenue Growth", Suffix: "%", Value: 5.6}
	assert.Equal(t, "+5.60%", up.Display(), "positive growth gets an explicit sign")

	down := KPI{Key: "sales_growth", Label: "Sales Growth", Suffix: "%", Value: -2.1}
	assert.Equal(t, "-2.10%", down.Display())
}

func TestKPIIsGrowth(t *testing.T) {
	assert.True(t, KPI{Key: "revenue_growth"}.IsGrowth())
	assert.True(t, KPI{Key: "customer_growth"}.IsGrowth())
	assert.False(t, KPI{Key: "total_revenue"}.IsGrowth())
}

func TestKPIColor(t *testing.T) {
	assert.Equal(t, "#0a8554", KPI{Key: "revenue_growth", Value: 3.0}.Color())
	assert.Equal(t, "#c53030", KPI{Key: "revenue_growth", Value: -3.0}.Color())
	assert.Equal(t, "#2c3e50", KPI{Key: "total_revenue", Value: 100}.Color())
	assert.Equal(t, "#2c3e50", KPI{Key: "revenue_growth", Value: 0}.Color(), "flat growth stays neutral")
}
