package session

import (
	"sync"
	"time"
)

// Ticket cancels a scheduled task. Cancel is idempotent and never blocks.
type Ticket interface {
	Cancel()
}

// Scheduler runs fn repeatedly every interval until the ticket is cancelled.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Ticket
}

// TickerScheduler runs each task on its own goroutine driven by a time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) Ticket {
	t := &tickerTicket{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				// a tick may race with Cancel; prefer the cancel
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

type tickerTicket struct {
	once sync.Once
	stop chan struct{}
}

func (t *tickerTicket) Cancel() {
	t.once.Do(func() { close(t.stop) })
}
