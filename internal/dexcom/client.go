package dexcom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/vladimiradmaev/glucolog/internal/config"
	"github.com/vladimiradmaev/glucolog/internal/domain"
	apperrors "github.com/vladimiradmaev/glucolog/internal/errors"
)

const maxErrorBody = 4096

// Client fetches estimated glucose values from the Dexcom API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a new Dexcom client
func NewClient(cfg config.DexcomConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type egvResponse struct {
	Records []egvRecord `json:"records"`
}

type egvRecord struct {
	SystemTime time.Time `json:"systemTime"`
	Value      int       `json:"value"`
	Trend      string    `json:"trend"`
}

// ReadingsInRange returns the user's CGM samples between start and end,
// inclusive, ordered by time ascending. It implements domain.GlucoseSource.
func (c *Client) ReadingsInRange(ctx context.Context, userID domain.UserID, start, end time.Time) ([]domain.Reading, error) {
	endpoint := fmt.Sprintf("%s/users/%s/egvs", c.baseURL, url.PathEscape(userID.Value()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	q := req.URL.Query()
	q.Set("startDate", start.UTC().Format(time.RFC3339))
	q.Set("endDate", end.UTC().Format(time.RFC3339))
	req.URL.RawQuery = q.Encode()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError(err, "dexcom")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		// The source's own message travels up untouched.
		return nil, apperrors.NewUpstreamError(errors.New(msg), "dexcom")
	}

	var payload egvResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewUpstreamError(err, "dexcom")
	}

	readings := make([]domain.Reading, 0, len(payload.Records))
	for _, record := range payload.Records {
		readings = append(readings, domain.Reading{
			Time:  record.SystemTime,
			Value: record.Value,
			Trend: record.Trend,
		})
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Time.Before(readings[j].Time) })
	return readings, nil
}
