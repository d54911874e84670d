package bridge

import (
	"context"
	"time"

	"github.com/picodegallo/gallo/bus"
	"github.com/picodegallo/gallo/wire"
)

// WaitCondition names a GPIO wait primitive.
type WaitCondition uint8

const (
	WaitHigh WaitCondition = iota
	WaitLow
	WaitRising
	WaitFalling
	WaitAny
)

func (c WaitCondition) String() string {
	switch c {
	case WaitHigh:
		return "high"
	case WaitLow:
		return "low"
	case WaitRising:
		return "rising"
	case WaitFalling:
		return "falling"
	case WaitAny:
		return "any"
	default:
		return "unknown"
	}
}

const defaultPollInterval = 100 * time.Microsecond

// edgeWaiter observes pin transitions by repeated sampling. Level waits
// (high/low) are satisfied by the current level; edge waits require an
// initial sample followed by an observed change, so a pin that is
// already high never satisfies a rising-edge wait on its own.
type edgeWaiter struct {
	gpio     bus.GPIO
	interval time.Duration
}

func newEdgeWaiter(gpio bus.GPIO, interval time.Duration) *edgeWaiter {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &edgeWaiter{gpio: gpio, interval: interval}
}

// wait blocks until cond is observed on pin or ctx is cancelled. There
// is no wire-level timeout; cancellation comes from the connection
// context only.
func (w *edgeWaiter) wait(ctx context.Context, pin uint8, cond WaitCondition) error {
	last, err := w.gpio.Get(pin)
	if err != nil {
		return err
	}
	// Already-true levels satisfy the level waits immediately. Edge
	// waits always need a transition.
	switch cond {
	case WaitHigh:
		if last == wire.High {
			return nil
		}
	case WaitLow:
		if last == wire.Low {
			return nil
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		cur, err := w.gpio.Get(pin)
		if err != nil {
			return err
		}
		switch cond {
		case WaitHigh:
			if cur == wire.High {
				return nil
			}
		case WaitLow:
			if cur == wire.Low {
				return nil
			}
		case WaitRising:
			if last == wire.Low && cur == wire.High {
				return nil
			}
		case WaitFalling:
			if last == wire.High && cur == wire.Low {
				return nil
			}
		case WaitAny:
			if cur != last {
				return nil
			}
		}
		last = cur
	}
}
