// Package gateway reads the upstream student, course and library providers.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const maxBodyBytes = 16 << 20

// Record is one upstream object as decoded from JSON.
type Record map[string]any

// ExternalData is the combined result of reading every provider once.
type ExternalData struct {
	Students []Record
	Courses  []Record
	Items    []Record
	Success  bool
	Errors   []string
}

// Client performs GET requests against the configured providers.
type Client struct {
	httpClient  *http.Client
	studentsURL string
	coursesURL  string
	libraryURL  string
	logger      *zap.Logger
}

// NewClient builds a client from upstream configuration.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		studentsURL: strings.TrimRight(cfg.StudentsURL, "/"),
		coursesURL:  strings.TrimRight(cfg.CoursesURL, "/"),
		libraryURL:  strings.TrimRight(cfg.LibraryURL, "/"),
		logger:      logger,
	}
}

// FetchAllExternalData reads the three providers concurrently. A failing provider
// contributes an error string and an empty list; Success is true when any provider
// returned at least one record.
func (c *Client) FetchAllExternalData(ctx context.Context) ExternalData {
	type outcome struct {
		records []Record
		err     error
	}
	sources := []struct {
		kind string
		url  string
	}{
		{"students", c.studentsURL},
		{"courses", c.coursesURL},
		{"library items", c.libraryURL},
	}

	results := make([]outcome, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			var records []Record
			err := c.getJSON(ctx, url, &records)
			results[i] = outcome{records: records, err: err}
		}(i, src.url)
	}
	wg.Wait()

	var data ExternalData
	for i, src := range sources {
		res := results[i]
		if res.err != nil {
			data.Errors = append(data.Errors, fmt.Sprintf("error fetching %s: %v", src.kind, res.err))
			c.logger.Warn("upstream fetch failed", zap.String("source", src.kind), zap.Error(res.err))
			continue
		}
		c.logger.Info("upstream records fetched", zap.String("source", src.kind), zap.Int("count", len(res.records)))
		switch i {
		case 0:
			data.Students = res.records
		case 1:
			data.Courses = res.records
		case 2:
			data.Items = res.records
		}
	}
	data.Success = len(data.Students) > 0 || len(data.Courses) > 0 || len(data.Items) > 0
	return data
}

// FetchStudent reads a single student from the students provider.
func (c *Client) FetchStudent(ctx context.Context, id int64) (Record, error) {
	var record Record
	url := c.studentsURL + "/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, url, &record); err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %d not found upstream", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("failed to fetch student %d", id))
	}
	if len(record) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("empty response for student %d", id))
	}
	return record, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream response",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, "upstream record not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
