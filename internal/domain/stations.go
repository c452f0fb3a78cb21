package domain

import (
	"fmt"
	"strings"
)

// Sentinel labels for stations absent from metadata.
const (
	UnknownCity     = "Nieznana"
	UnknownProvince = "Nieznane"
)

// Metadata column names as they appear in the GIOŚ metadata workbook.
const (
	metaCodeColumn     = "Kod stacji"
	metaOldCodesPrefix = "Stary Kod stacji" // followed by "(o ile inny od aktualnego)" in the archive
	metaCityColumn     = "Miejscowość"
	metaProvinceColumn = "Województwo"
)

// StationRecord is one metadata row.
type StationRecord struct {
	Code     string
	OldCodes string // comma-separated retired codes, may be empty
	City     string
	Province string
}

// StationIndex holds the lookups derived from metadata. It is built once per
// run and only read afterwards.
type StationIndex struct {
	OldCodes  map[string]string // retired code -> current code
	Cities    map[string]string // current code -> city
	Provinces map[string]string // current code -> province
}

// ParseMetadata reads the metadata sheet. The first row is the header;
// rows without a station code are skipped.
func ParseMetadata(rows [][]string) ([]StationRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse metadata: %w", ErrNoData)
	}

	code, old, city, province := -1, -1, -1, -1
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		switch {
		case h == metaCodeColumn:
			code = i
		case strings.HasPrefix(h, metaOldCodesPrefix):
			old = i
		case h == metaCityColumn:
			city = i
		case h == metaProvinceColumn:
			province = i
		}
	}
	required := []struct {
		name string
		idx  int
	}{{metaCodeColumn, code}, {metaCityColumn, city}, {metaProvinceColumn, province}}
	for _, col := range required {
		if col.idx < 0 {
			return nil, fmt.Errorf("parse metadata: %q: %w", col.name, ErrMissingColumn)
		}
	}

	out := make([]StationRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := StationRecord{
			Code:     cellAt(row, code),
			OldCodes: cellAt(row, old),
			City:     cellAt(row, city),
			Province: cellAt(row, province),
		}
		if rec.Code == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ResolveStations builds the three lookup maps. Later records override
// earlier ones for the same code.
func ResolveStations(records []StationRecord) StationIndex {
	idx := StationIndex{
		OldCodes:  make(map[string]string),
		Cities:    make(map[string]string, len(records)),
		Provinces: make(map[string]string, len(records)),
	}
	for _, rec := range records {
		for _, old := range strings.Split(rec.OldCodes, ",") {
			old = strings.TrimSpace(old)
			if old == "" {
				continue
			}
			idx.OldCodes[old] = rec.Code
		}
		idx.Cities[rec.Code] = rec.City
		idx.Provinces[rec.Code] = rec.Province
	}
	return idx
}

// Locate returns the province and city of a station, falling back to the
// sentinel labels.
func (s StationIndex) Locate(code string) (province, city string) {
	province, ok := s.Provinces[code]
	if !ok {
		province = UnknownProvince
	}
	city, ok = s.Cities[code]
	if !ok {
		city = UnknownCity
	}
	return province, city
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
