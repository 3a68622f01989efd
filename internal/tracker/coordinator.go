package tracker

import (
	"context"
	"strconv"
	"time"

	"github.com/obatracker-data/internal/common/config"
	"github.com/obatracker-data/internal/common/logger"
)

// coordinator owns the polling lifecycle of one stop: fetch, derive,
// publish, pick the next delay, re-arm. Cycles never overlap because the
// loop runs in a single goroutine and the timer is armed only after a
// cycle finishes.
type coordinator struct {
	stop    config.StopConfig
	label   string
	gateway Gateway
	sink    Sink
	alerter Alerter
	tiers   *TierState
	slots   *slotArena
	logger  logger.Logger

	// now is injectable for tests.
	now func() time.Time

	// seen holds the situation IDs of the last successful cycle; nil
	// until the first one, which only establishes the baseline.
	seen map[string]struct{}
}

func newCoordinator(stop config.StopConfig, label string, table *TierTable, gateway Gateway, sink Sink, alerter Alerter, log logger.Logger) *coordinator {
	return &coordinator{
		stop:    stop,
		label:   label,
		gateway: gateway,
		sink:    sink,
		alerter: alerter,
		tiers:   NewTierState(table),
		slots:   newSlotArena(stop.ID),
		logger:  log,
		now:     time.Now,
	}
}

// run drives the poll loop until ctx is cancelled. The first cycle fires
// immediately; every later one is armed by its predecessor.
func (c *coordinator) run(ctx context.Context) {
	c.logger.Info("Starting stop coordinator",
		"stop", c.stop.ID,
		"label", c.label,
		"routes", len(c.stop.Routes))

	timer := time.NewTimer(c.cycle(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stop coordinator stopping", "stop", c.stop.ID)
			return
		case <-timer.C:
			timer.Reset(c.cycle(ctx))
		}
	}
}

// cycle runs one fetch-and-publish pass and returns the delay until the
// next one. A failed fetch keeps the current tier and re-arms with its
// delay; backing off further would just slow recovery.
func (c *coordinator) cycle(ctx context.Context) time.Duration {
	now := c.now()

	snapshot, err := c.gateway.ArrivalsForStop(ctx, c.stop.ID)
	if err != nil {
		delay := c.tiers.CurrentDelay()
		c.logger.Error("Fetch failed, keeping polling tier",
			"stop", c.stop.ID,
			"tier", c.tiers.Current(),
			"retry_in", delay,
			"error", err)
		c.publishRefresh(ctx, now, delay)
		return delay
	}

	departures := ExtractDepartures(snapshot.Arrivals, now, c.stop.Routes)
	situations := ExtractSituations(snapshot.Situations)

	c.publishSituations(ctx, situations, now)
	c.alertNewSituations(ctx, situations)
	for _, update := range c.slots.reconcile(departures, now) {
		c.publish(ctx, update)
	}

	var untilNext time.Duration
	hasNext := len(departures) > 0
	if hasNext {
		untilNext = departures[0].Time().Sub(now)
	}
	delay := c.tiers.Next(untilNext, hasNext)

	c.publishRefresh(ctx, now, delay)

	c.logger.Debug("Poll cycle complete",
		"stop", c.stop.ID,
		"departures", len(departures),
		"situations", len(situations),
		"tier", c.tiers.Current(),
		"next_poll_in", delay)

	return delay
}

func (c *coordinator) publish(ctx context.Context, update StateUpdate) {
	if err := c.sink.PublishSensorState(ctx, update); err != nil {
		c.logger.Warn("Failed to publish sensor state",
			"slot", update.SlotID,
			"error", err)
	}
}

// publishSituations publishes the situations slot: the count as the value,
// the rendered markdown as an attribute. The count includes situations the
// renderer skips, so an empty document with a non-zero count still signals
// that something is going on.
func (c *coordinator) publishSituations(ctx context.Context, situations []Situation, at time.Time) {
	c.publish(ctx, StateUpdate{
		SlotID: situationsSlotID(c.stop.ID),
		StopID: c.stop.ID,
		Kind:   KindSituations,
		Value:  strconv.Itoa(len(situations)),
		Attributes: map[string]interface{}{
			"markdown": RenderSituations(situations),
		},
		At: at,
	})
}

// publishRefresh publishes the forecast of the next poll.
func (c *coordinator) publishRefresh(ctx context.Context, at time.Time, delay time.Duration) {
	c.publish(ctx, StateUpdate{
		SlotID: refreshSlotID(c.stop.ID),
		StopID: c.stop.ID,
		Kind:   KindRefresh,
		Value:  at.Add(delay).UTC().Format(time.RFC3339),
		Attributes: map[string]interface{}{
			"tier":          c.tiers.Current(),
			"delay_seconds": int(delay.Seconds()),
		},
		At: at,
	})
}

// alertNewSituations raises one alert per situation ID that was absent
// from the previous successful cycle. The first cycle only records the
// baseline so a restart does not replay alerts for ongoing disruptions.
func (c *coordinator) alertNewSituations(ctx context.Context, situations []Situation) {
	current := make(map[string]struct{}, len(situations))
	for _, s := range situations {
		current[s.ID] = struct{}{}
	}

	if c.seen == nil {
		c.seen = current
		return
	}

	for _, s := range situations {
		if _, ok := c.seen[s.ID]; ok {
			continue
		}
		c.logger.Info("New situation affecting stop",
			"stop", c.stop.ID,
			"situation", s.ID,
			"severity", s.Severity)
		if c.alerter != nil {
			c.alerter.SituationAlert(ctx, c.label, s)
		}
	}

	c.seen = current
}
