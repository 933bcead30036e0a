package control

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Wiper empties a service's own store.
type Wiper interface {
	Clear(ctx context.Context) error
}

// Plane executes control commands for one service. Signals is nil for the
// stores, which only act locally.
type Plane struct {
	wiper     Wiper
	signals   *Broadcaster
	grace     time.Duration
	terminate func()

	mu    sync.Mutex
	timer *time.Timer
}

func NewPlane(wiper Wiper, signals *Broadcaster, grace time.Duration, terminate func()) *Plane {
	return &Plane{wiper: wiper, signals: signals, grace: grace, terminate: terminate}
}

// Do runs cmd and returns the status line to report.
func (p *Plane) Do(ctx context.Context, cmd Command) (string, error) {
	switch cmd {
	case CommandClear:
		if err := p.Clear(ctx); err != nil {
			return "", err
		}
		return "Database cleared", nil
	case CommandRestart:
		p.notify(CommandRestart)
		return "Restarted", nil
	case CommandShutdown:
		p.Shutdown()
		return "Shutting down", nil
	}
	return "", fmt.Errorf("unknown command %q", cmd)
}

// Clear wipes local state and tells the stores to do the same. It returns
// only after every store has answered or timed out; store failures are
// logged, not returned.
func (p *Plane) Clear(ctx context.Context) error {
	if p.wiper != nil {
		if err := p.wiper.Clear(ctx); err != nil {
			return err
		}
	}
	if p.signals != nil {
		p.signals.Send(ctx, CommandClear)
	}
	return nil
}

// Shutdown signals the stores and schedules termination after the grace
// delay so the reply can still be written.
func (p *Plane) Shutdown() {
	p.notify(CommandShutdown)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		return
	}
	log.Printf("shutting down in %s", p.grace)
	p.timer = time.AfterFunc(p.grace, func() {
		if p.signals != nil {
			p.signals.Wait()
		}
		p.terminate()
	})
}

func (p *Plane) notify(cmd Command) {
	if p.signals != nil {
		p.signals.Notify(cmd)
	}
}

// Gate performs the first-request bootstrap exactly once per process.
type Gate struct {
	plane *Plane
	once  sync.Once
}

func NewGate(p *Plane) *Gate {
	return &Gate{plane: p}
}

// Middleware runs the bootstrap before the first request is handled. A first
// /restart keeps existing data and a first /clear is left to its own handler.
// Any other first request starts from an empty system. Health checks never
// count as the first request.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		g.once.Do(func() {
			switch r.URL.Path {
			case "/restart", "/clear":
				return
			}
			if err := g.plane.Clear(context.WithoutCancel(r.Context())); err != nil {
				log.Printf("bootstrap clear: %v", err)
			}
		})
		next.ServeHTTP(w, r)
	})
}
