package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
	"github.com/yourusername/captchacache/core"
)

// MemoryExtension emulates a Redis server with the mCaptcha cache module
// loaded. It answers the introspection commands used during verification
// and the five cache commands, keeping all state in process.
// It is safe for concurrent use.
type MemoryExtension struct {
	captchas *xsync.MapOf[string, *memoryCaptcha]
	catalog  core.Catalog
	missing  map[string]bool
	noModule bool
	now      func() time.Time
}

// memoryCaptcha holds one registered captcha and its visitor arrivals
type memoryCaptcha struct {
	mu       sync.Mutex
	config   core.CaptchaConfig
	visitors []time.Time
}

// MemoryOption configures a MemoryExtension
type MemoryOption func(*MemoryExtension)

// WithoutModule makes MODULE LIST report no cache module
func WithoutModule() MemoryOption {
	return func(m *MemoryExtension) {
		m.noModule = true
	}
}

// WithoutCommand makes COMMAND INFO report name as unknown and rejects calls to it
func WithoutCommand(name string) MemoryOption {
	return func(m *MemoryExtension) {
		m.missing[name] = true
	}
}

// WithClock replaces time.Now for visitor expiry
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryExtension) {
		m.now = now
	}
}

// Ensure MemoryExtension implements Executor
var _ Executor = (*MemoryExtension)(nil)

// NewMemoryExtension creates an empty emulated cache module
func NewMemoryExtension(opts ...MemoryOption) *MemoryExtension {
	m := &MemoryExtension{
		captchas: xsync.NewMapOf[string, *memoryCaptcha](),
		catalog:  core.DefaultCatalog(),
		missing:  make(map[string]bool),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do runs a command and wraps the reply the way go-redis would.
func (m *MemoryExtension) Do(ctx context.Context, args ...interface{}) *redis.Cmd {
	if err := ctx.Err(); err != nil {
		return redis.NewCmdResult(nil, err)
	}

	strArgs := make([]string, len(args))
	for i, arg := range args {
		strArgs[i] = fmt.Sprint(arg)
	}

	reply, err := m.Exec(strArgs)
	if err == nil && reply == nil {
		err = redis.Nil
	}
	return redis.NewCmdResult(reply, err)
}

// Exec runs a command given as strings. Replies are int64, string,
// []interface{} or nil; a returned error stands for an error reply.
func (m *MemoryExtension) Exec(args []string) (interface{}, error) {
	if len(args) == 0 {
		return nil, errors.New("ERR empty command")
	}

	name := strings.ToUpper(args[0])
	switch name {
	case "MODULE":
		return m.moduleCmd(args[1:])
	case "COMMAND":
		return m.commandCmd(args[1:])
	}

	if !m.isModuleCommand(name) || m.noModule || m.missing[name] {
		return nil, fmt.Errorf("ERR unknown command '%s'", args[0])
	}

	switch name {
	case m.catalog.AddCaptcha:
		if len(args) != 3 {
			return nil, wrongArity(name)
		}
		return m.addCaptcha(args[1], args[2])
	case m.catalog.AddVisitor:
		if len(args) != 2 {
			return nil, wrongArity(name)
		}
		return m.addVisitor(args[1])
	case m.catalog.Get:
		if len(args) != 2 {
			return nil, wrongArity(name)
		}
		return m.visitorCount(args[1])
	case m.catalog.CaptchaExists:
		if len(args) != 2 {
			return nil, wrongArity(name)
		}
		return m.captchaExists(args[1]), nil
	default:
		if len(args) != 2 {
			return nil, wrongArity(name)
		}
		return m.deleteCaptcha(args[1])
	}
}

// Commands returns the names Exec accepts as module commands
func (m *MemoryExtension) Commands() []string {
	return m.catalog.Commands()
}

// Len returns the number of registered captchas
func (m *MemoryExtension) Len() int {
	return m.captchas.Size()
}

// Clear removes all captchas
func (m *MemoryExtension) Clear() {
	m.captchas.Clear()
}

func (m *MemoryExtension) moduleCmd(args []string) (interface{}, error) {
	if len(args) != 1 || strings.ToUpper(args[0]) != "LIST" {
		return nil, errors.New("ERR unknown subcommand for 'module'")
	}
	if m.noModule {
		return []interface{}{}, nil
	}

	// RESP2 shape: one flat name/value array per loaded module
	return []interface{}{
		[]interface{}{"name", m.catalog.Module, "ver", int64(1)},
	}, nil
}

func (m *MemoryExtension) commandCmd(args []string) (interface{}, error) {
	if len(args) == 0 || strings.ToUpper(args[0]) != "INFO" {
		return nil, errors.New("ERR unknown subcommand for 'command'")
	}

	replies := make([]interface{}, 0, len(args)-1)
	for _, name := range args[1:] {
		upper := strings.ToUpper(name)
		if !m.isModuleCommand(upper) || m.noModule || m.missing[upper] {
			replies = append(replies, nil)
			continue
		}
		replies = append(replies, []interface{}{strings.ToLower(name), int64(-2), []interface{}{"write"}, int64(1), int64(1), int64(1)})
	}
	return replies, nil
}

func (m *MemoryExtension) isModuleCommand(name string) bool {
	for _, cmd := range m.catalog.Commands() {
		if cmd == name {
			return true
		}
	}
	return false
}

func (m *MemoryExtension) addCaptcha(id, payload string) (interface{}, error) {
	var config core.CaptchaConfig
	if err := json.Unmarshal([]byte(payload), &config); err != nil {
		return nil, fmt.Errorf("ERR invalid captcha payload: %v", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("ERR %v", err)
	}

	_, loaded := m.captchas.LoadOrStore(id, &memoryCaptcha{config: config})
	if loaded {
		return nil, errors.New("ERR captcha already exists")
	}
	return "OK", nil
}

func (m *MemoryExtension) addVisitor(id string) (interface{}, error) {
	captcha, ok := m.captchas.Load(id)
	if !ok {
		return nil, errors.New("ERR captcha not found")
	}

	captcha.mu.Lock()
	now := m.now()
	captcha.expire(now)
	captcha.visitors = append(captcha.visitors, now)
	result := core.AddVisitorResult{
		Duration:         captcha.config.Duration,
		DifficultyFactor: captcha.config.DifficultyFor(uint32(len(captcha.visitors))),
	}
	captcha.mu.Unlock()

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("ERR %v", err)
	}
	return string(data), nil
}

func (m *MemoryExtension) visitorCount(id string) (interface{}, error) {
	captcha, ok := m.captchas.Load(id)
	if !ok {
		return nil, errors.New("ERR captcha not found")
	}

	captcha.mu.Lock()
	defer captcha.mu.Unlock()
	captcha.expire(m.now())
	return int64(len(captcha.visitors)), nil
}

// captchaExists answers with the module's status code: 0 found, 1 not found
func (m *MemoryExtension) captchaExists(id string) int64 {
	if _, ok := m.captchas.Load(id); ok {
		return 0
	}
	return 1
}

func (m *MemoryExtension) deleteCaptcha(id string) (interface{}, error) {
	if _, ok := m.captchas.LoadAndDelete(id); !ok {
		return nil, errors.New("ERR captcha not found")
	}
	return "OK", nil
}

// expire drops visitors older than the captcha's window. Caller holds mu.
func (c *memoryCaptcha) expire(now time.Time) {
	window := time.Duration(c.config.Duration) * time.Second
	keep := 0
	for keep < len(c.visitors) && now.Sub(c.visitors[keep]) >= window {
		keep++
	}
	c.visitors = c.visitors[keep:]
}

func wrongArity(name string) error {
	return fmt.Errorf("ERR wrong number of arguments for '%s' command", name)
}
