package captchacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/captchacache/core"
	"github.com/yourusername/captchacache/store"
)

// Conn issues cache module commands over a verified store.
// A Conn is cheap; it shares the pool of the Cache it came from and may be
// used from multiple goroutines.
type Conn struct {
	exec     store.Executor
	catalog  core.Catalog
	logger   Logger
	recorder Recorder
	encoder  Encoder
}

// Register creates a captcha in the module with the request's configuration.
func (c *Conn) Register(ctx context.Context, req core.RegisterRequest) error {
	if req.ID == "" {
		return ErrInvalidID
	}

	payload, err := c.encoder(req.Config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if err := c.do(ctx, c.catalog.AddCaptcha, req.ID, payload).Err(); err != nil {
		return storeError(c.catalog.AddCaptcha, err)
	}
	return nil
}

// AddVisitor counts one visitor and returns the module's updated state.
// A nil result with a nil error means the module had nothing to report.
func (c *Conn) AddVisitor(ctx context.Context, req core.AddVisitorRequest) (*core.AddVisitorResult, error) {
	if req.ID == "" {
		return nil, ErrInvalidID
	}

	raw, err := c.do(ctx, c.catalog.AddVisitor, req.ID).Text()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(c.catalog.AddVisitor, err)
	}

	var result core.AddVisitorResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %s reply %q: %v", ErrDeserialization, c.catalog.AddVisitor, raw, err)
	}
	return &result, nil
}

// Exists reports whether a captcha is registered. The module answers with a
// status code: 0 when the captcha is found, 1 when it is not.
func (c *Conn) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidID
	}

	status, err := c.do(ctx, c.catalog.CaptchaExists, id).Int64()
	if err != nil {
		return false, storeError(c.catalog.CaptchaExists, err)
	}

	switch status {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		c.logger.Printf("captchacache: module responded with %d for %s", status, c.catalog.CaptchaExists)
		return false, fmt.Errorf("%w: %s replied %d", ErrExtensionProtocol, c.catalog.CaptchaExists, status)
	}
}

// Delete removes a captcha and its visitor count.
func (c *Conn) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	if err := c.do(ctx, c.catalog.DeleteCaptcha, id).Err(); err != nil {
		return storeError(c.catalog.DeleteCaptcha, err)
	}
	return nil
}

// VisitorCount returns the number of visitors inside the captcha's window.
// Unknown captchas fail with ErrStore.
func (c *Conn) VisitorCount(ctx context.Context, id string) (uint64, error) {
	if id == "" {
		return 0, ErrInvalidID
	}

	count, err := c.do(ctx, c.catalog.Get, id).Int64()
	if err != nil {
		return 0, storeError(c.catalog.Get, err)
	}
	if count < 0 {
		c.logger.Printf("captchacache: module responded with %d for %s", count, c.catalog.Get)
		return 0, fmt.Errorf("%w: %s replied %d", ErrExtensionProtocol, c.catalog.Get, count)
	}
	return uint64(count), nil
}

// do sends a single command and reports it to the recorder
func (c *Conn) do(ctx context.Context, command string, args ...interface{}) *redis.Cmd {
	start := time.Now()
	cmd := c.exec.Do(ctx, append([]interface{}{command}, args...)...)

	if c.recorder != nil {
		err := cmd.Err()
		if errors.Is(err, redis.Nil) {
			err = nil
		}
		c.recorder.RecordCommand(command, time.Since(start), err)
	}
	return cmd
}
