package captchacache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/captchacache/core"
	"github.com/yourusername/captchacache/store"
)

// executorFunc adapts a function to store.Executor
type executorFunc func(ctx context.Context, args ...interface{}) *redis.Cmd

func (f executorFunc) Do(ctx context.Context, args ...interface{}) *redis.Cmd {
	return f(ctx, args...)
}

// overrideExecutor answers selected commands itself and forwards the rest
func overrideExecutor(next store.Executor, replies map[string]*redis.Cmd) store.Executor {
	return executorFunc(func(ctx context.Context, args ...interface{}) *redis.Cmd {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = fmt.Sprint(arg)
		}
		key := strings.Join(parts, " ")

		if cmd, ok := replies[key]; ok {
			return cmd
		}
		if cmd, ok := replies[parts[0]]; ok {
			return cmd
		}
		return next.Do(ctx, args...)
	})
}

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

type recordedCommand struct {
	command string
	err     error
}

type captureRecorder struct {
	mu       sync.Mutex
	commands []recordedCommand
}

func (r *captureRecorder) RecordCommand(command string, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, recordedCommand{command: command, err: err})
}

func minimalConfig() core.CaptchaConfig {
	return core.CaptchaConfig{
		Levels: []core.Level{
			{VisitorThreshold: 50, DifficultyFactor: 50},
			{VisitorThreshold: 500, DifficultyFactor: 500},
		},
		Duration: 30,
	}
}
