package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats is one profiler report.
type Stats struct {
	FPS float64

	// DrawsPerFrame is the mean number of draw calls recorded per frame.
	DrawsPerFrame float64

	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	SysMB       float64
}

// Profiler tracks frame rate, draw calls and memory statistics. It reports to the log once per
// update interval.
type Profiler struct {
	frameCount     int
	drawCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// NewProfiler creates a Profiler reporting every interval, every second when interval <= 0.
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Tick records one frame that issued draws draw calls. When the update interval has elapsed it
// logs and returns the stats for the interval.
func (p *Profiler) Tick(draws int) (Stats, bool) {
	return p.tick(time.Now(), draws)
}

func (p *Profiler) tick(now time.Time, draws int) (Stats, bool) {
	p.frameCount++
	p.drawCount += draws

	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := Stats{
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		DrawsPerFrame: float64(p.drawCount) / float64(p.frameCount),
		HeapMB:        float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:   float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:       p.memStats.NumGC,
		SysMB:         float64(p.memStats.Sys) / 1024 / 1024,
	}

	log.Printf("[Profiler] FPS: %.2f | Draws/frame: %.1f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d | Sys: %.2f MB",
		stats.FPS, stats.DrawsPerFrame, stats.HeapMB, stats.AllocRateMB, stats.GCCount, stats.SysMB)

	p.frameCount = 0
	p.drawCount = 0
	p.lastTime = now
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stats, true
}
