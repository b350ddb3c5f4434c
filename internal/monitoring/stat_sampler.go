package monitoring

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	highCPUThreshold = 90.0
	alertCooldown    = 15 * time.Minute
)

// StatSampler periodically records host resource usage for the admin tab.
type StatSampler struct {
	interval  time.Duration
	ticker    *time.Ticker
	done      chan bool
	mu        sync.RWMutex
	latest    *models.SystemStats
	lastAlert time.Time
}

// NewStatSampler creates a new StatSampler.
func NewStatSampler(interval time.Duration) *StatSampler {
	return &StatSampler{interval: interval, done: make(chan bool)}
}

// Run starts the periodic sampling.
func (s *StatSampler) Run() {
	log.Info().Msg("Starting background stat sampler...")
	s.ticker = time.NewTicker(s.interval)
	defer s.ticker.Stop()

	// Run once immediately on start
	s.sample()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping background stat sampler.")
			return
		case <-s.ticker.C:
			s.sample()
		}
	}
}

// Stop halts the periodic sampling.
func (s *StatSampler) Stop() {
	s.done <- true
}

// Latest returns the most recent sample, if any.
func (s *StatSampler) Latest() (models.SystemStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return models.SystemStats{}, false
	}
	return *s.latest, true
}

func (s *StatSampler) sample() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := CollectSystemStats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("StatSampler: Non-fatal error collecting host stats")
		return
	}
	s.mu.Lock()
	s.latest = &stats
	s.mu.Unlock()

	s.checkHighCPU(stats)
}

func (s *StatSampler) checkHighCPU(stats models.SystemStats) {
	if stats.CPUPercent <= highCPUThreshold {
		return
	}
	if !s.lastAlert.IsZero() && stats.SampledAt.Sub(s.lastAlert) < alertCooldown {
		return
	}
	log.Warn().Float64("cpu_percent", stats.CPUPercent).Msg("High CPU usage detected")
	s.lastAlert = stats.SampledAt
}

// CollectSystemStats takes one sample of CPU, memory and uptime. CPU usage is
// measured since the previous call.
func CollectSystemStats(ctx context.Context) (models.SystemStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.SystemStats{}, err
	}
	stats := models.SystemStats{
		MemoryPercent: vm.UsedPercent,
		MemoryUsedMB:  vm.Used / 1024 / 1024,
		MemoryTotalMB: vm.Total / 1024 / 1024,
		Goroutines:    runtime.NumGoroutine(),
		SampledAt:     time.Now().UTC(),
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	} else if err != nil {
		log.Debug().Err(err).Msg("CPU usage unavailable")
	}
	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		stats.UptimeSeconds = uptime
	}
	return stats, nil
}
