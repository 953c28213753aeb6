package tracker

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/srimandarbha/conntracker/internal/config"
	"github.com/srimandarbha/conntracker/internal/health"
	"github.com/srimandarbha/conntracker/internal/logging"
	"github.com/srimandarbha/conntracker/internal/proctable"
	"github.com/srimandarbha/conntracker/internal/report"
	"github.com/srimandarbha/conntracker/internal/snapshot"
)

var log = logging.L("tracker")

// Tracker owns the capture loop: scan both connection tables, aggregate,
// deliver, wait out the interval, repeat. One cycle at a time; the next
// cycle starts only after the current one's deliveries have been issued.
type Tracker struct {
	cfg       *config.Config
	ports     proctable.PortSet
	hostname  string
	reporters []namedReporter
	healthMon *health.Monitor
	stopChan  chan struct{}
	stopOnce  sync.Once
}

type namedReporter struct {
	name string
	report.Reporter
}

// New builds a tracker from validated config. The port set and host
// identifier are resolved once here and shared, immutable, by every cycle.
func New(cfg *config.Config) (*Tracker, error) {
	ports := config.ParsePorts(cfg.Ports)
	if len(ports) == 0 {
		return nil, fmt.Errorf("ports %q contains no valid port numbers", cfg.Ports)
	}

	t := &Tracker{
		cfg:       cfg,
		ports:     ports,
		hostname:  resolveHost(cfg.Host),
		healthMon: health.NewMonitor(),
		stopChan:  make(chan struct{}),
	}

	if cfg.OutputPath != "" {
		t.reporters = append(t.reporters, namedReporter{"file", report.NewFileReporter(cfg.OutputPath)})
	}
	if cfg.Broker != "" && cfg.Topic != "" {
		t.reporters = append(t.reporters, namedReporter{"bus", report.NewBusReporter(cfg.Broker, cfg.Topic)})
	}

	return t, nil
}

// resolveHost picks the host identifier: explicit override, then gopsutil
// host facts, then the kernel hostname, then empty.
func resolveHost(override string) string {
	if override != "" {
		return override
	}
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return ""
}

// Start runs capture cycles until Stop is called. The interval is fixed;
// drift from per-cycle processing time is not corrected.
func (t *Tracker) Start() {
	interval := time.Duration(t.cfg.IntervalSeconds) * time.Second
	log.Info("tracker started",
		"host", t.hostname,
		"ports", t.ports.Ports(),
		"interval", interval,
		"sinks", t.sinkNames())

	t.cycle()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cycle()
		case <-t.stopChan:
			return
		}
	}
}

// Stop ends the loop and closes the reporters. Safe to call more than once.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		for _, r := range t.reporters {
			if err := r.Close(); err != nil {
				log.Warn("reporter close failed", "reporter", r.name, "error", err)
			}
		}
		log.Info("tracker stopped")
	})
}

// RunOnce performs a single capture cycle and returns its snapshot.
func (t *Tracker) RunOnce() snapshot.Snapshot {
	return t.cycle()
}

// Health returns the latest per-component checks.
func (t *Tracker) Health() []health.Check {
	return t.healthMon.All()
}

// cycle captures one snapshot. The two tables are scanned concurrently
// with no shared state; results meet only in the aggregation step. Each
// reporter's failure is recorded and the remaining reporters still run.
func (t *Tracker) cycle() snapshot.Snapshot {
	start := time.Now().UTC()

	var (
		tcp4, tcp6 proctable.Remotes
		err4, err6 error
		wg         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		tcp4, err4 = proctable.ScanFile(t.cfg.TCPPath, t.ports, false)
	}()
	go func() {
		defer wg.Done()
		tcp6, err6 = proctable.ScanFile(t.cfg.TCP6Path, t.ports, true)
	}()
	wg.Wait()

	t.recordScan("scan:tcp", err4)
	t.recordScan("scan:tcp6", err6)

	snap := snapshot.Aggregate(tcp4, tcp6, t.hostname, start)

	for _, r := range t.reporters {
		if err := r.Report(snap); err != nil {
			log.Warn("delivery failed", "reporter", r.name, "error", err)
			t.healthMon.Update("report:"+r.name, health.Degraded, err.Error())
			continue
		}
		t.healthMon.Update("report:"+r.name, health.Healthy, "")
	}

	log.Debug("cycle complete",
		"ports", len(snap.Connections),
		"elapsed", time.Since(start))
	return snap
}

func (t *Tracker) recordScan(name string, err error) {
	if err != nil {
		t.healthMon.Update(name, health.Degraded, err.Error())
		return
	}
	t.healthMon.Update(name, health.Healthy, "")
}

func (t *Tracker) sinkNames() []string {
	names := make([]string, 0, len(t.reporters))
	for _, r := range t.reporters {
		names = append(names, r.name)
	}
	return names
}
