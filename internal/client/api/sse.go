package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/mpodriezov/boardpack/internal/common"
)

// StreamEvents opens the per-application SSE stream and decodes events onto
// the returned channel. The channel closes when the server ends the stream
// or stop is called. Keepalive comments are skipped.
func (c *Client) StreamEvents(ctx context.Context, applicationID string) (<-chan Event, func(), error) {
	access, _ := c.tokens()
	if access == "" {
		return nil, nil, common.ErrorUnauthorized
	}

	streamCtx, cancel := context.WithCancel(ctx)

	// EventSource-style auth: the token travels as a query parameter.
	endpoint := c.baseURL + "/applications/" + applicationID + "/events?access_token=" + url.QueryEscape(access)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// No timeout: the stream stays open until canceled.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, nil, mapStatus(resp.StatusCode, nil)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

		var data string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, ":"):
				// keepalive comment
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && data != "":
				var event Event
				if err := json.Unmarshal([]byte(data), &event); err == nil {
					select {
					case out <- event:
					case <-streamCtx.Done():
						return
					}
				}
				data = ""
			}
		}
	}()

	return out, cancel, nil
}
