package domain

// ZipAverage is one choropleth row: a postal code and its averaged measurement.
type ZipAverage struct {
	PostalCode string
	Value      float64 // Missing when no building in the ZIP has a value
	Count      int     // buildings that contributed to Value
}

// AggregateByZip averages a measurement per postal code, applying the
// measurement's post-processing. Rows are ordered by postal code. Buildings
// without a postal code are left out.
func AggregateByZip(ds *Dataset, m Measurement) []ZipAverage {
	out := make([]ZipAverage, 0, len(ds.zipCodes))
	for _, zip := range ds.zipCodes {
		if zip == "" {
			continue
		}
		idx := ds.byZip[zip]
		values := make([]float64, len(idx))
		for i, j := range idx {
			values[i] = m.Value(ds.buildings[j])
		}
		avg, n := mean(values)
		out = append(out, ZipAverage{
			PostalCode: zip,
			Value:      m.PostProcess(avg),
			Count:      n,
		})
	}
	return out
}

// Average returns the dataset-wide mean of a measurement, ignoring missing values.
func Average(ds *Dataset, m Measurement) float64 {
	avg, _ := mean(ds.Values(m))
	return avg
}

// KPI formats the dataset-wide average of the named measurement for the KPI
// card. Unknown names, and columns with no numeric values, yield NotAvailable.
func KPI(ds *Dataset, name string) string {
	m, ok := LookupMeasurement(name)
	if !ok {
		return NotAvailable
	}
	return m.FormatKPI(Average(ds, m))
}

// MeasurementSummary is one measurement's average inside a single ZIP code.
type MeasurementSummary struct {
	Name    string
	Average float64
	Count   int
}

// ZipSummary describes the buildings of one postal code.
type ZipSummary struct {
	PostalCode   string
	Buildings    int
	Measurements []MeasurementSummary
}

// SummarizeZip averages every measurement for one postal code. It reports
// false when the dataset has no buildings in that ZIP.
func SummarizeZip(ds *Dataset, zip string) (ZipSummary, bool) {
	buildings := ds.InZip(zip)
	if len(buildings) == 0 {
		return ZipSummary{}, false
	}
	summary := ZipSummary{
		PostalCode: buildings[0].PostalCode,
		Buildings:  len(buildings),
	}
	for _, m := range measurements {
		values := make([]float64, len(buildings))
		for i, b := range buildings {
			values[i] = m.Value(b)
		}
		avg, n := mean(values)
		summary.Measurements = append(summary.Measurements, MeasurementSummary{
			Name:    m.Name,
			Average: m.PostProcess(avg),
			Count:   n,
		})
	}
	return summary, true
}
