// Package rankinghtml scrapes a fixed-layout government ranking table:
// one row per station with prefecture, station name, the observed value,
// and the observation date. The pages are served as Shift_JIS or UTF-8;
// decoding is sniffed from the Content-Type header and meta tags.
package rankinghtml

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/tenkilab/tenki-etl/internal/domain"
)

const sourceName = "ranking_html"

// Reader scrapes one ranking page into raw records.
type Reader struct {
	url        string
	metric     domain.Metric
	year       int // year assumed for M/D dates, which omit it
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a ranking page reader. year resolves the page's
// month/day-only dates; callers pass the current year for live pages.
func New(url string, metric domain.Metric, year int, timeout time.Duration, logger *slog.Logger) *Reader {
	return &Reader{
		url:        url,
		metric:     metric,
		year:       year,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Name implements pipeline.SourceReader.
func (r *Reader) Name() string { return sourceName }

// Read fetches and parses the page. Network failure is
// ErrSourceUnavailable; a page without the expected table is
// ErrMalformedSource. Station rows become explicitly-dated records keyed
// by station display name.
func (r *Reader) Read(ctx context.Context) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, r.url, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, r.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: status %d: %s", domain.ErrSourceUnavailable, r.url, resp.StatusCode, body)
	}

	// Shift_JIS pages decode transparently; charset.NewReader sniffs the
	// header, BOM, and meta tags.
	decoded, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: charset: %v", domain.ErrMalformedSource, r.url, err)
	}

	doc, err := html.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedSource, r.url, err)
	}

	table := findFirst(doc, "table")
	if table == nil {
		return nil, fmt.Errorf("%w: %s: no ranking table in document", domain.ErrMalformedSource, r.url)
	}

	records := r.parseTable(table)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: ranking table has no station rows", domain.ErrMalformedSource, r.url)
	}

	r.logger.Info("ranking page read", "url", r.url, "records", len(records))
	return records, nil
}

// parseTable walks station rows. Layout is fixed: the last four cells of
// each data row are prefecture, station, value, date; a leading rank cell
// may or may not be present.
func (r *Reader) parseTable(table *html.Node) []domain.RawRecord {
	var records []domain.RawRecord
	for _, row := range findAll(table, "tr") {
		cells := findAll(row, "td")
		if len(cells) < 4 {
			continue // header or spacer row
		}
		cells = cells[len(cells)-4:]

		prefecture := nodeText(cells[0])
		station := nodeText(cells[1])
		value := strings.TrimSpace(strings.TrimSuffix(nodeText(cells[2]), "℃"))
		date, ok := r.parseDate(nodeText(cells[3]))
		if !ok || station == "" {
			r.logger.Warn("skipping unreadable ranking row",
				"prefecture", prefecture, "station", station, "date", nodeText(cells[3]))
			continue
		}

		records = append(records, domain.RawRecord{
			Source:     sourceName,
			EntityName: station,
			Date:       date,
			HasDate:    true,
			Metric:     r.metric,
			Value:      domain.TextValue(value),
			Unit:       domain.UnitCelsius,
		})
	}
	return records
}

// parseDate accepts "2026-08-05" and the page's native "8/5" form.
func (r *Reader) parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, true
	}
	if d, err := time.Parse("1/2", s); err == nil {
		return time.Date(r.year, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// findFirst returns the first element node with the given tag, depth-first.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns all element nodes with the given tag, document order.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && n.Data == tag {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAll(c, tag)...)
	}
	return out
}

// nodeText collects and trims the concatenated text content of a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
