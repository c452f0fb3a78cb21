// Package gios retrieves yearly PM2.5 archives and station metadata from
// the GIOŚ air-quality archive.
package gios

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

const (
	archivesPath   = "/pjp/archives"
	downloadMarker = "downloadFile"
	pm25Marker     = "PM25_1g"
)

var (
	// ErrArchiveNotFound means the archive page lists no download for a year.
	ErrArchiveNotFound = errors.New("archive link not found")

	// ErrMetadataNotFound means the archive page lists no metadata workbook.
	ErrMetadataNotFound = errors.New("metadata link not found")

	// ErrSheetNotFound means a yearly archive lacks the PM2.5 hourly sheet.
	ErrSheetNotFound = errors.New("PM2.5 hourly sheet not found in archive")
)

// Client downloads from the GIOŚ archive over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	pages      *lruCache[[]Link]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an archive client. baseURL is the site root, e.g.
// https://powietrze.gios.gov.pl; requests are limited to perSecond and up to
// cacheSize scraped pages are kept in memory.
func NewClient(baseURL string, timeout time.Duration, perSecond float64, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		pages:   newLRUCache[[]Link](cacheSize),
		metrics: metrics,
		logger:  logger,
	}
}

// Links scrapes the anchors of the archive page. The page is downloaded once
// per client; failed or empty scrapes are retried on the next call.
func (c *Client) Links(ctx context.Context) ([]Link, error) {
	url := c.baseURL + archivesPath
	if links, ok := c.pages.get(url); ok {
		c.metrics.ArchiveCache.WithLabelValues("hit").Inc()
		return links, nil
	}
	c.metrics.ArchiveCache.WithLabelValues("miss").Inc()

	body, err := c.get(ctx, url, "page")
	if err != nil {
		return nil, err
	}
	links, err := ParseLinks(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(links) > 0 {
		c.pages.put(url, links)
	}
	return links, nil
}

// FetchYear downloads the yearly zip archive and reads its PM2.5 hourly sheet.
func (c *Client) FetchYear(ctx context.Context, year int) (domain.RawTable, error) {
	links, err := c.Links(ctx)
	if err != nil {
		return domain.RawTable{}, err
	}
	id, err := FindArchiveID(links, year)
	if err != nil {
		return domain.RawTable{}, err
	}

	payload, err := c.get(ctx, c.baseURL+archivesPath+"/"+downloadMarker+"/"+id, "archive")
	if err != nil {
		return domain.RawTable{}, err
	}
	sheet, name, err := pm25Sheet(payload, year)
	if err != nil {
		return domain.RawTable{}, err
	}
	c.logger.Debug("archive sheet found", "year", year, "id", id, "sheet", name)
	return xlsx.ReadMeasurements(bytes.NewReader(sheet), year)
}

// FetchMetadata downloads the station metadata workbook linked from the
// archive page.
func (c *Client) FetchMetadata(ctx context.Context) ([][]string, error) {
	links, err := c.Links(ctx)
	if err != nil {
		return nil, err
	}
	link, err := FindMetadata(links)
	if err != nil {
		return nil, err
	}

	payload, err := c.get(ctx, c.resolve(link.Href), "metadata")
	if err != nil {
		return nil, err
	}
	return xlsx.ReadRows(bytes.NewReader(payload))
}

func (c *Client) resolve(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}

func (c *Client) get(ctx context.Context, url, kind string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s request: %w", kind, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	body, err := c.do(req)
	c.metrics.ArchiveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ArchiveRequests.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("%s request: %w", kind, err)
	}
	c.metrics.ArchiveRequests.WithLabelValues(kind, "success").Inc()
	c.logger.Debug("archive request", "kind", kind, "url", url, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gios archive error: status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

// pm25Sheet extracts the hourly PM2.5 workbook from a yearly archive:
// "<year>_PM25_1g.xlsx" when present, else any entry naming PM25_1g.
func pm25Sheet(payload []byte, year int) ([]byte, string, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, "", fmt.Errorf("open archive %d: %w", year, err)
	}

	want := strconv.Itoa(year) + "_" + pm25Marker + ".xlsx"
	var match *zip.File
	for _, f := range zr.File {
		base := path.Base(f.Name)
		if base == want {
			match = f
			break
		}
		if match == nil && strings.Contains(base, pm25Marker) {
			match = f
		}
	}
	if match == nil {
		return nil, "", fmt.Errorf("archive %d: %w", year, ErrSheetNotFound)
	}

	rc, err := match.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", match.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", match.Name, err)
	}
	return data, match.Name, nil
}
