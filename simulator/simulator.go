// Package simulator provides an in-memory cec.BusGateway for demoing and
// testing discovery without real CEC hardware.
package simulator

import (
	"context"
	"log"
	"reflect"
	"time"

	"github.com/shimmeringbee/cec"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/shimmeringbee/retry"
	"golang.org/x/sync/errgroup"
)

// SimulatedDevice scripts one bus participant's canned replies.
type SimulatedDevice struct {
	Address cec.LogicalAddress

	// Replies maps a request opcode to the frame the device sends back.
	// An opcode absent from this map is simulated as silence, exercising
	// the timeout/retry path.
	Replies map[cec.Opcode]cec.Frame

	// Delay is the artificial network delay before a reply is enqueued.
	Delay time.Duration
}

type simEvent struct {
	frame    cec.Frame
	isTimer  bool
	stateTag cec.DiscoveryState
}

// Gateway is an in-memory cec.BusGateway backed by a set of SimulatedDevice
// scripts. Every reply and timer tick is funnelled through one internal
// channel and drained by a single dispatcher goroutine, so the
// DiscoveryAction it drives only ever hears from one goroutine at a time.
type Gateway struct {
	logger  logwrap.Logger
	devices []SimulatedDevice
	cache   cec.MessageCache

	events chan simEvent
	group  *errgroup.Group
	gctx   context.Context

	onCommand func(cec.Frame) bool
	onTimer   func(cec.DiscoveryState)
}

// NewGateway constructs a Gateway over the given devices. onCommand and
// onTimer are normally DiscoveryAction.OnCommand and DiscoveryAction.OnTimer.
// cache, if non-nil, is populated with every inbound frame before it is
// handed to onCommand, exactly as a real bus host is expected to do.
func NewGateway(logger logwrap.Logger, devices []SimulatedDevice, cache cec.MessageCache, onCommand func(cec.Frame) bool, onTimer func(cec.DiscoveryState)) *Gateway {
	if reflect.DeepEqual(logger, logwrap.Logger{}) {
		logger = logwrap.New(golog.Wrap(log.Default()))
	}

	group, gctx := errgroup.WithContext(context.Background())

	return &Gateway{
		logger:    logger,
		devices:   devices,
		cache:     cache,
		events:    make(chan simEvent, 32),
		group:     group,
		gctx:      gctx,
		onCommand: onCommand,
		onTimer:   onTimer,
	}
}

// Run drains the internal event channel and dispatches every frame/timer
// event serially, until ctx is cancelled. Intended to run on its own
// goroutine for the lifetime of the Gateway.
func (g *Gateway) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-g.events:
			if ev.isTimer {
				g.onTimer(ev.stateTag)
			} else {
				if g.cache != nil {
					g.cache.Put(ev.frame.Source, ev.frame.Opcode, ev.frame)
				}
				g.onCommand(ev.frame)
			}
		}
	}
}

// PollDevices acknowledges every simulated device present, in the requested
// order, using retry.Retry for the poll sweep's own bus-level retry budget
// even though this in-memory bus never actually fails to poll.
func (g *Gateway) PollDevices(ctx context.Context, cb cec.PollCallback, flags cec.PollFlags, retries int) error {
	return retry.Retry(ctx, time.Second, retries, func(ctx context.Context) error {
		acked := make([]cec.LogicalAddress, 0, len(g.devices))
		for _, d := range g.devices {
			acked = append(acked, d.Address)
		}

		if flags&cec.PollReverseOrder != 0 {
			for i, j := 0, len(acked)-1; i < j; i, j = i+1, j-1 {
				acked[i], acked[j] = acked[j], acked[i]
			}
		}

		cb(acked)
		return nil
	})
}

// Send looks up the target device's script and, after its configured delay,
// enqueues the scripted reply (or nothing, to exercise the retry path) back
// through the same channel the dispatcher drains. Every simulated reply
// runs on its own errgroup goroutine so a slow device never blocks another.
func (g *Gateway) Send(ctx context.Context, target cec.LogicalAddress, opcode cec.Opcode) error {
	device, found := g.deviceFor(target)
	if !found {
		return nil
	}

	reply, hasReply := device.Replies[opcode]
	if !hasReply {
		g.logger.LogTrace(ctx, "Simulated device is silent for opcode.", logwrap.Datum("LogicalAddress", target), logwrap.Datum("Opcode", opcode))
		return nil
	}

	g.group.Go(func() error {
		select {
		case <-time.After(device.Delay):
		case <-g.gctx.Done():
			return nil
		}

		select {
		case g.events <- simEvent{frame: reply}:
		case <-g.gctx.Done():
		}
		return nil
	})

	return nil
}

// FireTimer delivers a timeout through the same serial dispatch path as
// replies. The CLI's discover and serve commands hand it to
// cec.NewHostActionTimer so the action's timer ticks reach it only through
// this Gateway's dispatcher goroutine.
func (g *Gateway) FireTimer(stateTag cec.DiscoveryState) {
	g.events <- simEvent{isTimer: true, stateTag: stateTag}
}

// Wait blocks until every in-flight simulated reply goroutine has finished,
// so a demo run can shut down without leaking goroutines.
func (g *Gateway) Wait() error {
	return g.group.Wait()
}

func (g *Gateway) deviceFor(addr cec.LogicalAddress) (SimulatedDevice, bool) {
	for _, d := range g.devices {
		if d.Address == addr {
			return d, true
		}
	}
	return SimulatedDevice{}, false
}
