// Package monitor exposes the launcher's runtime state over HTTP while
// the app runs: Prometheus metrics on /metrics and a JSON health view
// on /healthz. The whole package is optional; nothing here runs unless
// metrics are enabled.
package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Exporter tracks the launch lifecycle and serves it in Prometheus text
// format. It implements launch.Notifier, so the launcher feeds it
// directly. Counters live in a private client_golang registry; the
// handwritten gauges below cover point-in-time state.
type Exporter struct {
	mu sync.RWMutex

	startTime   time.Time
	environment string
	entryPoint  string

	childPID     int
	childUp      bool
	url          string
	restarts     int
	lastExitCode int
	lastDuration time.Duration
	progress     float64

	registry      *promclient.Registry
	launchesTotal promclient.Counter
	restartsTotal promclient.Counter
	exitsTotal    *promclient.CounterVec
}

// NewExporter creates an exporter with its counters registered.
func NewExporter() *Exporter {
	e := &Exporter{
		startTime: time.Now(),
		registry:  promclient.NewRegistry(),
		launchesTotal: promclient.NewCounter(promclient.CounterOpts{
			Name: "memo_launches_total",
			Help: "Total app launch attempts, including supervised restarts",
		}),
		restartsTotal: promclient.NewCounter(promclient.CounterOpts{
			Name: "memo_restarts_total",
			Help: "Total supervised restarts after a non-zero app exit",
		}),
		exitsTotal: promclient.NewCounterVec(promclient.CounterOpts{
			Name: "memo_app_exits_total",
			Help: "Total app exits by exit code",
		}, []string{"code"}),
	}

	e.registry.MustRegister(e.launchesTotal)
	e.registry.MustRegister(e.restartsTotal)
	e.registry.MustRegister(e.exitsTotal)

	return e
}

// LaunchStarted implements launch.Notifier.
func (e *Exporter) LaunchStarted(environment, entryPoint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.environment = environment
	e.entryPoint = entryPoint
	e.progress = 0
	e.launchesTotal.Inc()
}

// ChildStarted implements launch.Notifier.
func (e *Exporter) ChildStarted(pid int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.childPID = pid
	e.childUp = true
}

// URLDetected implements launch.Notifier.
func (e *Exporter) URLDetected(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.url = url
}

// ProgressUpdated implements launch.Notifier.
func (e *Exporter) ProgressUpdated(percent float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = percent
}

// ChildExited implements launch.Notifier.
func (e *Exporter) ChildExited(exitCode int, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.childUp = false
	e.lastExitCode = exitCode
	e.lastDuration = duration
	e.exitsTotal.WithLabelValues(strconv.Itoa(exitCode)).Inc()
}

// RestartScheduled implements launch.Notifier.
func (e *Exporter) RestartScheduled(attempt int, _ time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restarts = attempt
	e.restartsTotal.Inc()
}

// Snapshot is the health view of the launch.
type Snapshot struct {
	Status        string  `json:"status"`
	PID           int     `json:"pid,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Environment   string  `json:"environment,omitempty"`
	URL           string  `json:"url,omitempty"`
	Restarts      int     `json:"restarts"`
	LastExitCode  int     `json:"last_exit_code"`
}

// Snap returns the current launch state. Status is "starting" until the
// first child process runs, "running" while it does, "exited" after.
func (e *Exporter) Snap() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	status := "starting"
	switch {
	case e.childUp:
		status = "running"
	case e.childPID != 0:
		status = "exited"
	}

	return Snapshot{
		Status:        status,
		PID:           e.childPID,
		UptimeSeconds: time.Since(e.startTime).Seconds(),
		Environment:   e.environment,
		URL:           e.url,
		Restarts:      e.restarts,
		LastExitCode:  e.lastExitCode,
	}
}

// ServeHTTP serves Prometheus-compatible metrics at /metrics.
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	e.mu.RLock()
	childPID := e.childPID
	childUp := e.childUp
	restarts := e.restarts
	lastExitCode := e.lastExitCode
	lastDuration := e.lastDuration
	progress := e.progress
	uptime := time.Since(e.startTime).Seconds()
	e.mu.RUnlock()

	fmt.Fprintf(w, "# HELP memo_launcher_uptime_seconds Launcher uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE memo_launcher_uptime_seconds gauge\n")
	fmt.Fprintf(w, "memo_launcher_uptime_seconds %.0f\n", uptime)

	upValue := 0
	if childUp {
		upValue = 1
	}
	fmt.Fprintf(w, "\n# HELP memo_app_up Whether the app process is running (1=yes, 0=no)\n")
	fmt.Fprintf(w, "# TYPE memo_app_up gauge\n")
	fmt.Fprintf(w, "memo_app_up %d\n", upValue)

	fmt.Fprintf(w, "\n# HELP memo_app_restarts Supervised restarts in the current run\n")
	fmt.Fprintf(w, "# TYPE memo_app_restarts gauge\n")
	fmt.Fprintf(w, "memo_app_restarts %d\n", restarts)

	fmt.Fprintf(w, "\n# HELP memo_app_last_exit_code Exit code of the most recent app exit\n")
	fmt.Fprintf(w, "# TYPE memo_app_last_exit_code gauge\n")
	fmt.Fprintf(w, "memo_app_last_exit_code %d\n", lastExitCode)

	fmt.Fprintf(w, "\n# HELP memo_app_last_run_seconds Duration of the most recent app run\n")
	fmt.Fprintf(w, "# TYPE memo_app_last_run_seconds gauge\n")
	fmt.Fprintf(w, "memo_app_last_run_seconds %.2f\n", lastDuration.Seconds())

	fmt.Fprintf(w, "\n# HELP memo_app_progress_percent Last inference progress reported by the app (0-100)\n")
	fmt.Fprintf(w, "# TYPE memo_app_progress_percent gauge\n")
	fmt.Fprintf(w, "memo_app_progress_percent %.1f\n", progress)

	if childUp && childPID > 0 {
		writeChildUsage(w, childPID)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(w, "\n# HELP memo_host_memory_available_bytes Host memory currently available\n")
		fmt.Fprintf(w, "# TYPE memo_host_memory_available_bytes gauge\n")
		fmt.Fprintf(w, "memo_host_memory_available_bytes %d\n", vm.Available)
	}

	// Append the client_golang counters through the text encoder
	fmt.Fprintf(w, "\n")
	metricFamilies, err := e.registry.Gather()
	if err != nil {
		fmt.Fprintf(w, "# Error gathering metrics: %v\n", err)
		return
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metricFamilies {
		if err := encoder.Encode(mf); err != nil {
			fmt.Fprintf(w, "# Error encoding metric %s: %v\n", mf.GetName(), err)
		}
	}
	w.Write(buf.Bytes())
}

// writeChildUsage samples the app process itself. The launcher only
// observes the child, it never throttles or touches it, so a sampling
// failure (the process just exited, permissions) is simply omitted.
func writeChildUsage(w http.ResponseWriter, pid int) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return
	}

	if cpuPercent, err := proc.CPUPercent(); err == nil {
		fmt.Fprintf(w, "\n# HELP memo_app_cpu_percent App process CPU usage percentage\n")
		fmt.Fprintf(w, "# TYPE memo_app_cpu_percent gauge\n")
		fmt.Fprintf(w, "memo_app_cpu_percent %.2f\n", cpuPercent)
	}

	if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
		fmt.Fprintf(w, "\n# HELP memo_app_memory_rss_bytes App process resident memory\n")
		fmt.Fprintf(w, "# TYPE memo_app_memory_rss_bytes gauge\n")
		fmt.Fprintf(w, "memo_app_memory_rss_bytes %d\n", memInfo.RSS)
	}
}
