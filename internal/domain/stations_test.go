package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metadataRows() [][]string {
	return [][]string{
		{"Nr", metaCodeColumn, "Stary Kod stacji (o ile inny od aktualnego)", metaCityColumn, metaProvinceColumn},
		{"1", "B", "Y, Z", "Kraków", "MAŁOPOLSKIE"},
		{"2", "C", "", "Warszawa", "MAZOWIECKIE"},
		{"3", "", "Q", "Nowhere", "NONE"},
	}
}

func TestParseMetadata(t *testing.T) {
	recs, err := ParseMetadata(metadataRows())
	require.NoError(t, err)

	assert.Equal(t, []StationRecord{
		{Code: "B", OldCodes: "Y, Z", City: "Kraków", Province: "MAŁOPOLSKIE"},
		{Code: "C", City: "Warszawa", Province: "MAZOWIECKIE"},
	}, recs)
}

func TestParseMetadata_MissingColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   string
	}{
		{"no code", []string{metaCityColumn, metaProvinceColumn}, metaCodeColumn},
		{"no city", []string{metaCodeColumn, metaProvinceColumn}, metaCityColumn},
		{"no province", []string{metaCodeColumn, metaCityColumn}, metaProvinceColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadata([][]string{tt.header})
			require.ErrorIs(t, err, ErrMissingColumn)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseMetadata_Empty(t *testing.T) {
	_, err := ParseMetadata(nil)
	require.ErrorIs(t, err, ErrNoData)
}

func TestResolveStations(t *testing.T) {
	recs, err := ParseMetadata(metadataRows())
	require.NoError(t, err)
	idx := ResolveStations(recs)

	assert.Equal(t, map[string]string{"Y": "B", "Z": "B"}, idx.OldCodes)
	assert.Equal(t, "Kraków", idx.Cities["B"])
	assert.Equal(t, "MAZOWIECKIE", idx.Provinces["C"])
}

func TestResolveStations_LastRecordWins(t *testing.T) {
	idx := ResolveStations([]StationRecord{
		{Code: "A", OldCodes: "OLD", City: "First", Province: "P1"},
		{Code: "B", OldCodes: "OLD", City: "Second", Province: "P2"},
		{Code: "A", City: "Renamed", Province: "P1"},
	})

	assert.Equal(t, "B", idx.OldCodes["OLD"])
	assert.Equal(t, "Renamed", idx.Cities["A"])
}

func TestLocate(t *testing.T) {
	idx := ResolveStations([]StationRecord{{Code: "A", City: "Gdańsk", Province: "POMORSKIE"}})

	province, city := idx.Locate("A")
	assert.Equal(t, "POMORSKIE", province)
	assert.Equal(t, "Gdańsk", city)

	province, city = idx.Locate("X3")
	assert.Equal(t, UnknownProvince, province)
	assert.Equal(t, UnknownCity, city)
}
