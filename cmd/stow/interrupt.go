package main

import (
	"os"
	"os/signal"
	"syscall"
)

// onInterrupt calls fn if SIGINT or SIGTERM arrives before the returned
// stop function is called. stop returns once the watcher has exited.
func onInterrupt(fn func(os.Signal)) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	stopWatch := watchSignals(sigs, fn)
	return func() {
		signal.Stop(sigs)
		stopWatch()
	}
}

func watchSignals(sigs <-chan os.Signal, fn func(os.Signal)) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case sig := <-sigs:
			fn(sig)
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}
