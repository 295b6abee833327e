package core

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// SystemStatus は運用確認向けの集約ステータス。
type SystemStatus struct {
	Sessions struct {
		Backend string `json:"backend"`
		Stored  *int64 `json:"stored,omitempty"`
	} `json:"sessions"`
	Identities struct {
		Backend string `json:"backend"`
	} `json:"identities"`
	Memory struct {
		UsedBytes  uint64 `json:"used_bytes"`
		TotalBytes uint64 `json:"total_bytes"`
	} `json:"memory"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// CollectSystemStatus で現在のステータスを集約する。
// metrics が nil (cookie セッション) の場合はセッション数を省略する。
func CollectSystemStatus(ctx context.Context, cfg Config, metrics *MetricsService, startedAt time.Time) SystemStatus {
	var st SystemStatus

	st.Sessions.Backend = cfg.SessionBackend
	if metrics != nil {
		// best-effort
		if n, err := metrics.StoredSessions(ctx); err == nil {
			st.Sessions.Stored = &n
		}
	}
	st.Identities.Backend = "memory"
	if cfg.DatabaseURL != "" {
		st.Identities.Backend = "postgres"
	}

	used, total := readMemInfo()
	st.Memory.UsedBytes = used
	st.Memory.TotalBytes = total

	if !startedAt.IsZero() {
		st.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}

	return st
}

// readMemInfo returns used and total bytes using /proc/meminfo.
// If unavailable, returns zeros.
func readMemInfo() (used, total uint64) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	var memTotal, memAvailable uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			memTotal = parseKiBLine(line)
		} else if strings.HasPrefix(line, "MemAvailable:") {
			memAvailable = parseKiBLine(line)
		}
	}
	if memTotal > 0 {
		total = memTotal
		if memAvailable <= memTotal {
			used = memTotal - memAvailable
		}
		// convert KiB -> bytes
		used *= 1024
		total *= 1024
	}
	return used, total
}

func parseKiBLine(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
