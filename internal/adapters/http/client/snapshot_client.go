// Package client implements the snapshot store contract against a remote
// tablestakes server.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tablestakes/internal/adapters/http/middleware"
	"tablestakes/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds a single request when the caller sets none
const DefaultTimeout = 5 * time.Second

// SnapshotClient talks to the snapshot routes of a tablestakes server
type SnapshotClient struct {
	baseURL string
	timeout time.Duration
	stream  *http.Client
}

// NewSnapshotClient creates a client for the server at baseURL
func NewSnapshotClient(baseURL string, timeout time.Duration) *SnapshotClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SnapshotClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		stream:  &http.Client{},
	}
}

// Get fetches the snapshot stored under key
func (c *SnapshotClient) Get(ctx context.Context, key string) ([]byte, error) {
	timeout, err := c.deadline(ctx)
	if err != nil {
		return nil, err
	}

	agent := fiber.Get(c.snapshotURL(key))
	agent.Timeout(timeout)
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("get %s: %w", key, errors.Join(errs...))
	}

	switch status {
	case fiber.StatusOK:
		return body, nil
	case fiber.StatusNotFound:
		return nil, domain.ErrSnapshotNotFound
	default:
		return nil, fmt.Errorf("get %s: unexpected status %d", key, status)
	}
}

// Put overwrites the snapshot under key
func (c *SnapshotClient) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	timeout, err := c.deadline(ctx)
	if err != nil {
		return err
	}

	agent := fiber.Put(c.snapshotURL(key))
	agent.Timeout(timeout)
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Body(data)
	if secs := int64(ttl / time.Second); secs > 0 {
		agent.Set(middleware.SnapshotTTLHeader, strconv.FormatInt(secs, 10))
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("put %s: %w", key, errors.Join(errs...))
	}
	if status != fiber.StatusNoContent && status != fiber.StatusOK {
		return fmt.Errorf("put %s: unexpected status %d: %s", key, status, body)
	}
	return nil
}

// Subscribe follows the server's event stream for key. The channel fires
// after every write and is closed when ctx ends or the stream drops.
func (c *SnapshotClient) Subscribe(ctx context.Context, key string) (<-chan struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.snapshotURL(key)+"/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(fiber.HeaderAccept, "text/event-stream")
	req.Header.Set(fiber.HeaderAcceptEncoding, "identity")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}
	if resp.StatusCode != fiber.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("subscribe %s: unexpected status %d", key, resp.StatusCode)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if scanner.Text() != "event: snapshot" {
				continue
			}
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}()
	return ch, nil
}

func (c *SnapshotClient) snapshotURL(key string) string {
	return c.baseURL + "/api/v1/snapshots/" + url.PathEscape(key)
}

// deadline returns the request timeout, shortened to ctx's deadline
func (c *SnapshotClient) deadline(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if d, ok := ctx.Deadline(); ok {
		if left := time.Until(d); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}
	return timeout, nil
}
