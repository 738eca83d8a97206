// Package metrics holds the prometheus collectors for agent runs. They
// live in a private registry so a textfile export carries only
// agent-commander series.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry gathers every collector in this package.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// ProcessesStarted counts spawned processes by mode (attached, detached)
	ProcessesStarted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_commander_processes_started_total",
			Help: "Total number of processes spawned",
		},
		[]string{"mode"},
	)

	// ProcessDuration tracks how long attached processes run
	ProcessDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_commander_process_duration_seconds",
			Help:    "Process run time in seconds",
			Buckets: []float64{0.1, 1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"status"},
	)

	// RunsTotal counts agent runs by tool, isolation and outcome
	RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_commander_runs_total",
			Help: "Total number of agent runs",
		},
		[]string{"tool", "isolation", "status"},
	)

	// MessagesTotal counts NDJSON messages parsed from tool output
	MessagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_commander_messages_total",
			Help: "Total number of JSON messages parsed from tool output",
		},
		[]string{"tool"},
	)

	// ParseErrors counts malformed JSON lines in tool output
	ParseErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_commander_parse_errors_total",
			Help: "Total number of malformed JSON lines in tool output",
		},
		[]string{"tool"},
	)

	// TokensTotal counts tokens reported by tools
	TokensTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_commander_tokens_total",
			Help: "Total number of tokens reported by tools",
		},
		[]string{"tool", "direction"},
	)
)

// ExitStatus labels an exit code as "ok" or "failed".
func ExitStatus(code int) string {
	if code == 0 {
		return "ok"
	}
	return "failed"
}

// RecordProcessExit observes a finished process.
func RecordProcessExit(code int, d time.Duration) {
	ProcessDuration.WithLabelValues(ExitStatus(code)).Observe(d.Seconds())
}

// RecordTokens adds input and output token counts for tool.
func RecordTokens(tool string, input, output uint64) {
	if input > 0 {
		TokensTotal.WithLabelValues(tool, "input").Add(float64(input))
	}
	if output > 0 {
		TokensTotal.WithLabelValues(tool, "output").Add(float64(output))
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
