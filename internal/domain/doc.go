// Package domain models Met Office UK regional climate series.
//
// # Data Source
//
// Monthly series are published by the Met Office as plain text files under
// https://www.metoffice.gov.uk/pub/data/weather/uk/climate/datasets/, one file
// per (parameter, region) pair:
//
//	<base>/<parameter>/date/<region>.txt  →  e.g. ".../Tmax/date/UK.txt"
//
// Published parameters and the storage codes they map to:
//
//	Tmax         →  Tmax      (mean daily maximum temperature, °C)
//	Tmin         →  Tmin      (mean daily minimum temperature, °C)
//	Tmean        →  Tmean     (mean temperature, °C)
//	Sunshine     →  Sun       (hours)
//	Rainfall     →  Rain      (mm)
//	Raindays1mm  →  Raindays  (days with >= 1.0 mm)
//	AirFrost     →  Frost     (days of air frost)
//
// # File Format
//
// Each file starts with a free-text header followed by whitespace-delimited
// rows:
//
//	year  jan feb mar apr may jun jul aug sep oct nov dec  win spr sum aut ann
//	1884  5.6 7.1 8.5 ...                            8.0  ...
//
// Only the year and the twelve monthly columns are used; seasonal and annual
// aggregates are ignored. Header lines never start with an integer, so they
// fall out of [ParseLine] naturally. Lines starting with "#" are comments.
//
// Monthly token conventions:
//
//	"5.1"   plain value
//	"5.1*"  provisional value; the "*" quality flag is stripped
//	"---", "-", "NaN", ""  not yet published or not measured
//
// Unparseable tokens are treated as missing rather than failing the file.
// See [NormalizeToken].
//
// # Naming Inconsistencies
//
// Region file names are not fully consistent across parameters, so each
// combination resolves to an ordered list of candidate URLs (see
// [Resolver.Candidates]) and the first non-empty response wins.
package domain
