// Package domain models the GIOŚ (Główny Inspektorat Ochrony Środowiska)
// PM2.5 hourly archives and the cleaning and aggregation steps that turn
// them into one consistent time series.
//
// # Data Source
//
// Yearly archives are published as zip files at
// https://powietrze.gios.gov.pl/pjp/archives. Each zip holds one workbook per
// pollutant and averaging period; the PM2.5 hourly sheet is named
// "<year>_PM25_1g.xlsx". A separate metadata workbook lists every station.
//
// # Archive Conventions
//
// Sheet layout:
//
//	Row "Nr"            →  running station number (junk)
//	Row "Kod stacji"    →  station codes, the header marker row
//	Row "Wskaźnik"      →  pollutant name (junk)
//	Row "Czas uśredniania", "Jednostka", "Kod stanowiska" (junk)
//	Rows "2019-01-01 01:00:00" … one per hour, one column per station
//
// Only rows whose first cell is a full "YYYY-MM-DD HH:MM:SS" timestamp and
// the marker row survive cleaning. See [CleanTable].
//
// Decimal separator:
//
//	Older workbooks store values as text with a comma separator ("12,5").
//	Commas are converted to dots before parsing; anything unparseable is a
//	missing value (NaN), never zero.
//
// Hour 24:
//
//	The last reading of a day is stamped with midnight of the next day
//	("2019-07-01 00:00:00" belongs to 30 June). Timestamps within the first
//	59 seconds after midnight are moved to 23:59:59 of the previous day.
//	See [CorrectMidnight].
//
// Station codes:
//
//	Codes change over time. The metadata column "Stary Kod stacji" lists
//	the retired codes of a station, comma separated ("DsWrocWisA, DsWrocWis").
//	Archives of earlier years use the retired codes; [NormalizeCodes]
//	rewrites them to the current one. Stations missing from metadata are
//	labelled [UnknownCity] / [UnknownProvince].
//
// # Aggregates
//
// All aggregates ignore missing values: a mean divides by the number of
// present readings, and a missing daily mean never counts as an exceedance
// day. The default exceedance threshold is the WHO 2021 daily guideline of
// 15 µg/m³ ([DefaultThreshold]).
package domain
