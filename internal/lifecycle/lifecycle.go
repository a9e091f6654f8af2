// Package lifecycle runs cleanup when the editor is interrupted: restoring the
// terminal, flushing telemetry and writing the perf export.
package lifecycle

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type Handler func(os.Signal)

type HandlerID int64

type entry struct {
	id      HandlerID
	handler Handler
}

var (
	shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

	mu      sync.Mutex
	started bool
	signals chan os.Signal
	nextID  HandlerID
	entries []entry

	notify = signal.Notify
	stop   = signal.Stop
	exit   = os.Exit
)

// Register adds a handler run on SIGINT or SIGTERM, newest first. The process
// exits once every handler has returned.
func Register(handler Handler) HandlerID {
	if handler == nil {
		return 0
	}

	mu.Lock()
	defer mu.Unlock()
	if !started {
		listen()
	}
	nextID++
	entries = append(entries, entry{id: nextID, handler: handler})
	return nextID
}

func Unregister(id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	for i, existing := range entries {
		if existing.id == id {
			entries = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// listen must be called with mu held.
func listen() {
	started = true
	signals = make(chan os.Signal, 1)
	notify(signals, shutdownSignals...)

	incoming := signals
	go func() {
		sig, ok := <-incoming
		if !ok {
			return
		}
		runHandlers(sig)
		exit(exitCode(sig))
	}()
}

func runHandlers(sig os.Signal) {
	mu.Lock()
	snapshot := make([]entry, len(entries))
	copy(snapshot, entries)
	mu.Unlock()

	for i := len(snapshot) - 1; i >= 0; i-- {
		safeCall(snapshot[i].handler, sig)
	}
}

// safeCall keeps one failing handler from skipping the rest.
func safeCall(handler Handler, sig os.Signal) {
	defer func() {
		_ = recover()
	}()
	handler(sig)
}

func exitCode(sig os.Signal) int {
	switch sig {
	case os.Interrupt:
		return 130
	case syscall.SIGTERM:
		return 143
	default:
		return 1
	}
}

// reset clears global state (tests only).
func reset() {
	mu.Lock()
	defer mu.Unlock()
	if signals != nil {
		stop(signals)
	}
	signals = nil
	started = false
	nextID = 0
	entries = nil
	notify = signal.Notify
	stop = signal.Stop
	exit = os.Exit
}
