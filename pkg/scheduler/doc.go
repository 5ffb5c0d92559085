// Package scheduler runs an action at a fixed period on a background goroutine.
//
// # Usage
//
//	s := scheduler.New(time.Second, nil)
//	if !s.Start(func() { bucket.Refill() }) {
//	    // already running
//	}
//	defer s.Stop()
//
// The action runs once on the calling goroutine when the scheduler starts and
// then once per interval on a background goroutine, measured from the start
// of the previous run. A run that takes longer than the interval delays the
// next one, which then starts as soon as the slow run returns. Runs never
// overlap.
//
// # Stopping
//
// Stop prevents any further runs. It does not wait for a run that is already
// executing; the returned context is done once that run has returned, so
// callers that need a join can wait on it:
//
//	<-s.Stop().Done()
//
// The scheduler is built on github.com/robfig/cron/v3 with a constant-delay
// schedule that supports sub-second intervals.
package scheduler
