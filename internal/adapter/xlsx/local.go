package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// MetadataFile is the metadata workbook name inside a local data directory.
const MetadataFile = "metadata.xlsx"

// LocalSource reads archives previously downloaded or generated into a
// directory: <dir>/<year>.xlsx and <dir>/metadata.xlsx.
type LocalSource struct {
	dir string
}

// NewLocalSource creates a LocalSource rooted at dir.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

// YearPath returns the workbook path of one year.
func YearPath(dir string, year int) string {
	return filepath.Join(dir, strconv.Itoa(year)+".xlsx")
}

// FetchYear reads the yearly workbook.
func (s *LocalSource) FetchYear(ctx context.Context, year int) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}
	f, err := os.Open(YearPath(s.dir, year))
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	return ReadMeasurements(f, year)
}

// FetchMetadata reads the metadata workbook.
func (s *LocalSource) FetchMetadata(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()
	return ReadRows(f)
}
