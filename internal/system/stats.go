package system

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is a snapshot of the current process's resource usage.
type ProcessStats struct {
	PID        int32
	RSSBytes   uint64
	CPUPercent float64
	Threads    int32
}

// CurrentProcessStats samples the running process.
func CurrentProcessStats() (ProcessStats, error) {
	pid := int32(os.Getpid())
	p, err := process.NewProcess(pid)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("opening process %d: %w", pid, err)
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, fmt.Errorf("reading memory of process %d: %w", pid, err)
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, fmt.Errorf("reading cpu of process %d: %w", pid, err)
	}
	// Not every platform reports threads.
	threads, _ := p.NumThreads()

	return ProcessStats{PID: pid, RSSBytes: mem.RSS, CPUPercent: cpu, Threads: threads}, nil
}

// String formats the snapshot for the exit report.
func (s ProcessStats) String() string {
	return fmt.Sprintf("pid %d, rss %.1f MiB, cpu %.1f%%, %d threads",
		s.PID, float64(s.RSSBytes)/(1<<20), s.CPUPercent, s.Threads)
}
