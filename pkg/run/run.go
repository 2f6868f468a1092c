// Package run coordinates the long-lived parts of the daemon, e.g.
// the process data poller and the simulated device. A runner cancels
// every runnable as soon as one of them fails, so a dead simulator
// also brings down the poller that feeds from it.
package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// Runnable is a long-running task bounded by a context.
type Runnable interface {
	Run(context.Context) error
}

// Func is the func form of Runnable.
type Func func(context.Context) error

// Run implements Runnable.
func (f Func) Run(ctx context.Context) error {
	return f(ctx)
}

// Named is implemented by runnables that identify themselves in
// failure reports.
type Named interface {
	Name() string
}

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// Errors collects the failures of a runner. It is returned from Wait
// only when more than one runnable failed.
type Errors []error

// Error implements error.
func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for n, err := range e {
		msgs[n] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Runner spawns runnables over a shared cancelable context and waits
// for all of them to stop.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc

	group sync.WaitGroup
	count int

	lock sync.Mutex
	errs Errors
}

// NewRunner creates a runner over a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner whose lifetime is bounded by ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	ctx, cancel := context.WithCancel(ctx)
	return &Runner{ctx: ctx, cancel: cancel}
}

// HandleSignals cancels the runner on SIGINT or SIGTERM. A second
// signal exits immediately.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v, shutting down", sig)
		r.cancel()
		<-sigCh
		glog.Error("second signal, exiting now")
		os.Exit(1)
	}()
	return r
}

// Go spawns runnables. A runnable failing with anything other than
// context.Canceled cancels the rest.
func (r *Runner) Go(runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := fmt.Sprintf("runnable-%d", r.count)
		if named, ok := runner.(Named); ok {
			name = named.Name()
		}
		r.count++
		r.group.Add(1)
		go func(runner Runnable, name string) {
			defer r.group.Done()
			err := runner.Run(r.ctx)
			if err == nil || err == context.Canceled {
				glog.V(4).Infof("%s stopped", name)
				return
			}
			r.lock.Lock()
			r.errs = append(r.errs, fmt.Errorf("%s: %v", name, err))
			r.lock.Unlock()
			r.cancel()
		}(runner, name)
	}
	return r
}

// Wait blocks until every spawned runnable has stopped. It returns
// nil on a clean stop, the sole failure when one runnable failed, or
// an Errors value when several did.
func (r *Runner) Wait() error {
	r.group.Wait()
	r.cancel()
	r.lock.Lock()
	defer r.lock.Unlock()
	switch len(r.errs) {
	case 0:
		return nil
	case 1:
		return r.errs[0]
	default:
		return r.errs
	}
}
