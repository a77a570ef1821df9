// Package poller periodically asks the device for fresh dynamic readings.
package poller

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TaskFunc represents one poll.
type TaskFunc func() error

// GateFunc reports whether a poll should run right now.
type GateFunc func() bool

// Poller runs Task on a cron schedule. Ticks where Gate returns false are
// skipped, not postponed.
type Poller struct {
	Task TaskFunc
	Gate GateFunc

	parser cron.Parser

	mu       sync.Mutex
	schedule cron.Schedule
	nextRun  time.Time
	running  bool
	runs     int
	skips    int

	controlCh chan cron.Schedule
	stopCh    chan struct{}
}

func New(task TaskFunc, gate GateFunc) *Poller {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Poller{
		Task:      task,
		Gate:      gate,
		parser:    cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		controlCh: make(chan cron.Schedule, 1),
		stopCh:    make(chan struct{}),
	}
}

// Schedule sets the cron expression, e.g. "@every 3s". It can be called
// while running.
func (p *Poller) Schedule(expr string) error {
	sh, err := p.parser.Parse(expr)
	if err != nil {
		return err
	}

	p.mu.Lock()
	running := p.running
	if !running {
		p.schedule = sh
		p.nextRun = sh.Next(time.Now())
	}
	p.mu.Unlock()

	if running {
		// Replace a pending, unapplied schedule.
		select {
		case <-p.controlCh:
		default:
		}
		p.controlCh <- sh
	}
	return nil
}

func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	go p.run()
}

func (p *Poller) Stop() {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
}

type Status struct {
	NextRun time.Time `json:"nextRun"`
	Running bool      `json:"running"`
	Runs    int       `json:"runs"`
	Skips   int       `json:"skips"`
}

func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{NextRun: p.nextRun, Running: p.running, Runs: p.runs, Skips: p.skips}
}

func (p *Poller) run() {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		logrus.Debug("poller stopped")
	}()

	logrus.Debug("poller started")

	for {
		_, nextRun := p.snapshot()
		wait := time.Hour * 10000
		if !nextRun.IsZero() {
			wait = time.Until(nextRun)
			if wait < 0 {
				wait = 0
			}
		}
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			if nextRun.IsZero() {
				continue
			}
			p.tick()
		case sh := <-p.controlCh:
			timer.Stop()
			p.mu.Lock()
			p.schedule = sh
			p.nextRun = sh.Next(time.Now())
			p.mu.Unlock()
		case <-p.stopCh:
			timer.Stop()
			return
		}
	}
}

func (p *Poller) tick() {
	if p.Gate != nil && !p.Gate() {
		logrus.Trace("poll skipped")
		p.mu.Lock()
		p.skips++
		p.mu.Unlock()
	} else {
		if err := p.Task(); err != nil {
			logrus.WithError(err).Warn("poll failed")
		}
		p.mu.Lock()
		p.runs++
		p.mu.Unlock()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.schedule != nil {
		// Based on now so a slow task never causes a burst of catch-up runs.
		p.nextRun = p.schedule.Next(time.Now())
	}
}

func (p *Poller) snapshot() (cron.Schedule, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.schedule, p.nextRun
}
