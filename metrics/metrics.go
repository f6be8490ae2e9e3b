// Package metrics computes business KPIs and trend charts from a
// validated dataset.
package metrics

import (
	"math"

	"github.com/metricmail-ai/metricmail"
	"github.com/metricmail-ai/metricmail/dataset"
)

// Calculator derives KPIs from a dataset.
type Calculator struct {
	ds *dataset.Dataset
}

func New(ds *dataset.Dataset) *Calculator {
	return &Calculator{ds: ds}
}

// GrowthRate returns the period-over-period growth of the last value
// versus the previous one, as a percentage rounded to two decimals.
// A zero previous value yields +Inf when the current value is non-zero.
func (c *Calculator) GrowthRate(col string) float64 {
	vals := finite(c.ds.Column(col))
	if len(vals) < 2 {
		return 0
	}
	current := vals[len(vals)-1]
	previous := vals[len(vals)-2]
	if previous == 0 {
		if current != 0 {
			return math.Inf(1)
		}
		return 0
	}
	return round2((current - previous) / previous * 100)
}

// MovingAverage returns the trailing mean over the given window, with a
// minimum of one period, matching each input row.
func (c *Calculator) MovingAverage(col string, window int) []float64 {
	vals := c.ds.Column(col)
	if vals == nil {
		return nil
	}
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(vals))
	for i := range vals {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum, n := 0.0, 0
		for _, v := range vals[start : i+1] {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// KPIs returns the computed metrics in display order. Each KPI is
// emitted only when its source column is present.
func (c *Calculator) KPIs() []metricmail.KPI {
	var kpis []metricmail.KPI
	add := func(key, label, prefix, suffix string, value float64) {
		kpis = append(kpis, metricmail.KPI{
			Key:    key,
			Label:  label,
			Prefix: prefix,
			Suffix: suffix,
			Value:  value,
		})
	}

	if c.ds.Has("Revenue") {
		add("total_revenue", "Total Revenue", "$", "", c.sum("Revenue"))
		add("avg_daily_revenue", "Avg Daily Revenue", "$", "", c.mean("Revenue"))
		add("revenue_growth", "Revenue Growth", "", "%", c.GrowthRate("Revenue"))
	}
	if c.ds.Has("Sales") {
		add("total_sales", "Total Sales", "", "", c.sum("Sales"))
		add("avg_daily_sales", "Avg Daily Sales", "", "", c.mean("Sales"))
		add("sales_growth", "Sales Growth", "", "%", c.GrowthRate("Sales"))
	}
	if c.ds.Has("Customer_Count") {
		add("total_customers", "Total Customers", "", "", c.sum("Customer_Count"))
		add("avg_daily_customers", "Avg Daily Customers", "", "", c.mean("Customer_Count"))
		add("customer_growth", "Customer Growth", "", "%", c.GrowthRate("Customer_Count"))
		if customers := c.sum("Customer_Count"); c.ds.Has("Revenue") && customers != 0 {
			add("avg_revenue_per_customer", "Avg Revenue/Customer", "$", "",
				c.sum("Revenue")/customers)
		}
	}
	return kpis
}

func (c *Calculator) sum(col string) float64 {
	total := 0.0
	for _, v := range finite(c.ds.Column(col)) {
		total += v
	}
	return total
}

func (c *Calculator) mean(col string) float64 {
	vals := finite(c.ds.Column(col))
	if len(vals) == 0 {
		return 0
	}
	return c.sum(col) / float64(len(vals))
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
