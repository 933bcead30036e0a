// Package control carries the clear/restart/shutdown commands that keep the
// services' lifecycles in step.
package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ariefcatur/go-microshop/internal/svcclient"
	"golang.org/x/sync/errgroup"
)

type Command string

const (
	CommandClear    Command = "clear"
	CommandRestart  Command = "restart"
	CommandShutdown Command = "shutdown"
)

func ParseCommand(s string) (Command, bool) {
	switch c := Command(strings.ToLower(s)); c {
	case CommandClear, CommandRestart, CommandShutdown:
		return c, true
	}
	return "", false
}

// Poster delivers a signal, normally through the router.
type Poster interface {
	Post(ctx context.Context, path string, body []byte) (svcclient.Response, error)
}

// Broadcaster fans a command out to every store's internal endpoint.
type Broadcaster struct {
	router  Poster
	stores  []string
	timeout time.Duration

	wg sync.WaitGroup
}

func NewBroadcaster(router Poster, stores []string, timeout time.Duration) *Broadcaster {
	return &Broadcaster{router: router, stores: stores, timeout: timeout}
}

// Signal posts cmd to all stores at once and waits for every reply. One
// store failing does not stop the others; all failures come back joined.
func (b *Broadcaster) Signal(ctx context.Context, cmd Command) error {
	errs := make([]error, len(b.stores))
	var g errgroup.Group
	for i, store := range b.stores {
		path := "/" + store + "/internal/" + string(cmd)
		g.Go(func() error {
			resp, err := b.router.Post(ctx, path, []byte(`{}`))
			switch {
			case err != nil:
				errs[i] = fmt.Errorf("%s: %w", path, err)
			case resp.Status < http.StatusOK || resp.Status >= http.StatusMultipleChoices:
				errs[i] = fmt.Errorf("%s: status %d", path, resp.Status)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Send signals cmd and waits for the stores, bounded by the broadcaster's
// timeout. Failures only reach the log.
func (b *Broadcaster) Send(ctx context.Context, cmd Command) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := b.Signal(ctx, cmd); err != nil {
		log.Printf("signal %s: %v", cmd, err)
	}
}

// Notify is Send in the background. The triggering request never waits on it.
func (b *Broadcaster) Notify(cmd Command) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.Send(context.Background(), cmd)
	}()
}

// Wait blocks until every pending Notify has finished.
func (b *Broadcaster) Wait() {
	b.wg.Wait()
}
