package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

// Metrics tracks cache module command statistics.
// It implements captchacache.Recorder.
type Metrics struct {
	totalCommands  atomic.Int64
	failedCommands atomic.Int64

	// Prometheus exposition
	set *vm.Set

	// Per-command stats
	mu           sync.RWMutex
	commandStats map[string]*CommandStats
	startTime    time.Time
}

// CommandStats tracks statistics for a single module command
type CommandStats struct {
	Command       string        `json:"command"`
	Calls         int64         `json:"calls"`
	Errors        int64         `json:"errors"`
	TotalLatency  time.Duration `json:"total_latency_ns"`
	LastCalledAt  time.Time     `json:"last_called_at"`
	LastError     string        `json:"last_error,omitempty"`
	FirstCalledAt time.Time     `json:"first_called_at"`
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		set:          vm.NewSet(),
		commandStats: make(map[string]*CommandStats),
		startTime:    time.Now(),
	}
}

// RecordCommand records one command round trip
func (m *Metrics) RecordCommand(command string, elapsed time.Duration, err error) {
	m.totalCommands.Add(1)
	m.set.GetOrCreateCounter(fmt.Sprintf(`captchacache_commands_total{command=%q}`, command)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`captchacache_command_duration_seconds{command=%q}`, command)).Update(elapsed.Seconds())
	if err != nil {
		m.failedCommands.Add(1)
		m.set.GetOrCreateCounter(fmt.Sprintf(`captchacache_command_errors_total{command=%q}`, command)).Inc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	stats, exists := m.commandStats[command]
	if !exists {
		stats = &CommandStats{
			Command:       command,
			FirstCalledAt: now,
		}
		m.commandStats[command] = stats
	}

	stats.Calls++
	stats.TotalLatency += elapsed
	stats.LastCalledAt = now
	if err != nil {
		stats.Errors++
		stats.LastError = err.Error()
	}
}

// WritePrometheus writes all command metrics in Prometheus text format
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]*CommandStats, 0, len(m.commandStats))
	for _, stats := range m.commandStats {
		copied := *stats
		commands = append(commands, &copied)
	}

	// Busiest commands first
	sort.Slice(commands, func(i, j int) bool {
		if commands[i].Calls != commands[j].Calls {
			return commands[i].Calls > commands[j].Calls
		}
		return commands[i].Command < commands[j].Command
	})

	return &Snapshot{
		TotalCommands:  m.totalCommands.Load(),
		FailedCommands: m.failedCommands.Load(),
		Commands:       commands,
		UptimeSeconds:  int64(time.Since(m.startTime).Seconds()),
		StartTime:      m.startTime,
	}
}

// Snapshot represents a point-in-time view of metrics
type Snapshot struct {
	TotalCommands  int64           `json:"total_commands"`
	FailedCommands int64           `json:"failed_commands"`
	Commands       []*CommandStats `json:"commands"`
	UptimeSeconds  int64           `json:"uptime_seconds"`
	StartTime      time.Time       `json:"start_time"`
}
