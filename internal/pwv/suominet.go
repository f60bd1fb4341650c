package pwv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotPublished means SuomiNet has no file for a receiver and year.
var ErrNotPublished = errors.New("not published by SuomiNet")

// suomiDateLayout is the timestamp format used in SuomiNet plot files.
const suomiDateLayout = "2006-01-02T15:04"

// Sample is a single SuomiNet PWV measurement.
type Sample struct {
	Receiver string
	Date     time.Time
	PWV      float64
}

// Source provides SuomiNet measurements for one receiver and year.
type Source interface {
	Fetch(ctx context.Context, receiver string, year int) ([]Sample, error)
}

// SuomiClient downloads hourly SuomiNet plot files over HTTP.
type SuomiClient struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
}

// NewSuomiClient returns a client that issues at most rps requests per
// second. rps <= 0 disables rate limiting.
func NewSuomiClient(baseURL string, timeout time.Duration, rps float64) *SuomiClient {
	lim := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &SuomiClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: lim,
	}
}

// URL returns the plot file location for receiver and year.
func (c *SuomiClient) URL(receiver string, year int) string {
	return fmt.Sprintf("%s/%snrt_%d.plot", c.BaseURL, receiver, year)
}

// Fetch downloads and parses the plot file for receiver and year. A 404
// is reported as ErrNotPublished.
func (c *SuomiClient) Fetch(ctx context.Context, receiver string, year int) ([]Sample, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	url := c.URL(receiver, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %d: %w", receiver, year, ErrNotPublished)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	return ParseSuomi(resp.Body, receiver)
}

// ParseSuomi reads a SuomiNet plot file: whitespace separated lines of
// receiver ID, timestamp and PWV in mm, followed by columns this package
// does not use. Lines that do not parse and negative PWV values (the
// service's missing-data marker) are skipped. Lines naming a different
// receiver are skipped as well.
func ParseSuomi(r io.Reader, receiver string) ([]Sample, error) {
	var out []Sample
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		if receiver != "" && !strings.EqualFold(fields[0], receiver) {
			continue
		}
		date, err := time.ParseInLocation(suomiDateLayout, fields[1], time.UTC)
		if err != nil {
			continue
		}
		pwv, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || pwv < 0 {
			continue
		}
		out = append(out, Sample{Receiver: strings.ToUpper(fields[0]), Date: date, PWV: pwv})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read SuomiNet data: %w", err)
	}
	return out, nil
}
