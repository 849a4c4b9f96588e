package retrieve

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProbeResult reports one diagnostic request against the endpoint.
type ProbeResult struct {
	Label   string  `json:"label"`
	URL     string  `json:"url"`
	Status  int     `json:"status"`
	OK      bool    `json:"ok"`
	Elapsed float64 `json:"elapsed_sec"`
	Items   int     `json:"items"`
	Detail  string  `json:"detail,omitempty"`
}

// Probe issues a single non-retried request and records what came back.
// Used by the health-check path to tell a degraded endpoint apart from a
// query that legitimately matches nothing.
func (c *Client) Probe(ctx context.Context, label string, q Query) ProbeResult {
	res := ProbeResult{Label: label, URL: c.baseURL + "?" + q.values().Encode()}
	started := time.Now()
	defer func() {
		res.Elapsed = time.Since(started).Seconds()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	resp, err := c.http.Do(req)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var preview strings.Builder
		_, _ = io.CopyN(&preview, resp.Body, 200)
		res.Detail = strings.Join(strings.Fields(preview.String()), " ")
		return res
	}

	var payload struct {
		Data []Item `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		res.Detail = err.Error()
		return res
	}
	res.OK = true
	res.Items = len(payload.Data)
	return res
}
