package app

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// HistorySize is the number of frames kept for averaged timings.
const HistorySize = 60

// FrameTiming is the stage breakdown of one EncodeFrame call.
type FrameTiming struct {
	Frame  uint64 // published frame number, 0 when the frame failed
	OK     bool
	Stages map[string]time.Duration
}

// Total is the sum of all stage timings.
func (f FrameTiming) Total() time.Duration {
	var d time.Duration
	for _, s := range f.Stages {
		d += s
	}
	return d
}

// Profiler records stage timings per frame plus running counters. It is
// written by the frame loop and may be read from any goroutine.
type Profiler struct {
	mu sync.Mutex

	stages  []string
	counts  map[string]int
	started map[string]time.Time
	current map[string]time.Duration

	history []FrameTiming
	next    int
}

func NewProfiler() *Profiler {
	return &Profiler{
		counts:  make(map[string]int),
		started: make(map[string]time.Time),
		current: make(map[string]time.Duration),
		history: make([]FrameTiming, 0, HistorySize),
	}
}

// BeginFrame starts collecting stage timings for a new frame.
func (p *Profiler) BeginFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = make(map[string]time.Duration, len(p.stages))
	clear(p.started)
}

func (p *Profiler) BeginScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasStage(name) {
		p.stages = append(p.stages, name)
	}
	p.started[name] = time.Now()
}

func (p *Profiler) EndScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if start, ok := p.started[name]; ok {
		p.current[name] += time.Since(start)
		delete(p.started, name)
	}
}

// EndFrame files the frame's timings under its frame number and bumps
// frames_ok or frames_failed.
func (p *Profiler) EndFrame(frame uint64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ft := FrameTiming{Frame: frame, OK: ok, Stages: p.current}
	if len(p.history) < HistorySize {
		p.history = append(p.history, ft)
	} else {
		p.history[p.next] = ft
	}
	p.next = (p.next + 1) % HistorySize

	if ok {
		p.counts["frames_ok"]++
	} else {
		p.counts["frames_failed"]++
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[name] = count
}

func (p *Profiler) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[name]
}

// Stages lists stage names in the order they were first timed.
func (p *Profiler) Stages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.stages...)
}

// Last returns the most recently ended frame.
func (p *Profiler) Last() (FrameTiming, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return FrameTiming{}, false
	}
	return p.history[(p.next+HistorySize-1)%HistorySize], true
}

// Average is the mean time of a stage over the successful frames in the
// history window.
func (p *Profiler) Average(stage string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.average(stage)
}

func (p *Profiler) average(stage string) time.Duration {
	var sum time.Duration
	n := 0
	for _, ft := range p.history {
		if ft.OK {
			sum += ft.Stages[stage]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}

func (p *Profiler) hasStage(name string) bool {
	for _, s := range p.stages {
		if s == name {
			return true
		}
	}
	return false
}

func (p *Profiler) GetStatsString() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	var last FrameTiming
	if len(p.history) > 0 {
		last = p.history[(p.next+HistorySize-1)%HistorySize]
	}

	fmt.Fprintf(&sb, "Timings (frame %d, avg of %d):\n", last.Frame, len(p.history))
	for _, name := range p.stages {
		fmt.Fprintf(&sb, "  %-15s: %.2f ms (avg %.2f ms)\n", name, ms(last.Stages[name]), ms(p.average(name)))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-15s: %d\n", k, p.counts[k])
	}
	return sb.String()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
