package application

import (
	"time"

	"wingo/domain/events"
	"wingo/domain/interfaces"
)

// Settlement triggers, used as the trigger label on settlement metrics
const (
	TriggerScheduler = "scheduler"
	TriggerAdmin     = "admin"
	TriggerRecovery  = "recovery"
)

// Metrics records operational counters. The observability MetricsProvider implements it.
type Metrics interface {
	RecordRoundSettled(trigger, winningColor string, duration time.Duration)
	RecordBetPlaced(color string)
	RecordSettlementFailures(trigger string, count int)
	RecordPayout(amount float64)
	RecordWithdrawal(status string)
	RecordDeposit(amount float64)
}

type noopMetrics struct{}

func (noopMetrics) RecordRoundSettled(string, string, time.Duration) {}
func (noopMetrics) RecordBetPlaced(string)                           {}
func (noopMetrics) RecordSettlementFailures(string, int)             {}
func (noopMetrics) RecordPayout(float64)                             {}
func (noopMetrics) RecordWithdrawal(string)                          {}
func (noopMetrics) RecordDeposit(float64)                            {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// eventRecorder forwards events to a unit of work's bus and keeps them so
// metrics can be recorded once the transaction has committed
type eventRecorder struct {
	next      interfaces.EventPublisher
	published []events.Event
}

func newEventRecorder(next interfaces.EventPublisher) *eventRecorder {
	return &eventRecorder{next: next}
}

func (r *eventRecorder) Publish(event events.Event) error {
	if err := r.next.Publish(event); err != nil {
		return err
	}
	r.published = append(r.published, event)
	return nil
}

// record reports the committed events to metrics
func (r *eventRecorder) record(m Metrics) {
	for _, event := range r.published {
		switch e := event.(type) {
		case events.BetPlacedEvent:
			m.RecordBetPlaced(string(e.Color))
		case events.DepositCompletedEvent:
			m.RecordDeposit(e.Amount.InexactFloat64())
		case events.WithdrawalStatusChangedEvent:
			m.RecordWithdrawal(string(e.NewStatus))
		}
	}
}
