// Package domain models the NYC Local Law 84 building energy and water
// disclosure data shown on the dashboard.
//
// # Data Source
//
// Records come from the NYC Open Data export "NYC Building Energy and Water
// Data Disclosure for Local Law 84 (2022-Present)", one row per property.
// Boundaries come from the Census ZIP Code Tabulation Area (ZCTA) polygons
// for New York, keyed by the 5-digit ZCTA5CE10 property.
//
// # Missing Values
//
// Numeric cells are coerced once when the snapshot is built. Anything that
// does not parse as a finite number ("Not Available", blanks, "n/a") becomes
// NaN and is skipped by every average. See [ParseNumber] and [IsMissing].
//
// # Postal Codes
//
// The export stores ZIP codes as text, but spreadsheet round-trips leave
// artifacts such as "10001.0", "10001-2062" or "7302" (dropped leading zero).
// [NormalizePostalCode] folds all of these into the 5-character form used by
// the boundary file.
//
// # Measurements
//
// Three measurements can be selected. Each one carries its own color range,
// legend label and KPI format in a single table (see [LookupMeasurement]):
//
//	ENERGY STAR Score                            [35, 75]      "Energy Score"
//	Indoor Water Use (All Water Sources) (kgal)  [2000, 8000]  "Indoor Water Use"
//	Year Built                                   [1925, 1965]  (column name)
//
// Year Built averages are truncated toward zero so no fractional years are
// ever shown.
package domain
