package license

import (
	"context"
	"fmt"
	"time"

	"github.com/dpbiotech/configurator/pkg/statemachine"
)

// Event triggers a lifecycle transition.
type Event string

// EventActivate is fired by a completed payment.
const EventActivate Event = "activate"

// payment is the transition data of EventActivate. Actions update record in
// place; the store publishes it only after the snapshot is written.
type payment struct {
	record   *Record
	date     time.Time
	features []string
}

// lifecycle lists the allowed transitions. A payment dated on or after the
// current activation date (re)starts the licensed year. An older payment that
// arrives late only adds its features and leaves status and dates alone.
// Revoked licenses have no outgoing edge.
func lifecycle() *statemachine.Machine[Status, Event] {
	return statemachine.NewBuilder[Status, Event]().
		From(StatusNotActive).When(EventActivate).To(StatusValid).
		WithAction(renew).WithAction(mergeFeatures).Add().
		From(StatusValid).When(EventActivate).To(StatusValid).
		WithGuard(latestPayment).WithAction(renew).WithAction(mergeFeatures).Add().
		From(StatusValid).When(EventActivate).To(StatusValid).
		WithAction(mergeFeatures).Add().
		From(StatusExpired).When(EventActivate).To(StatusValid).
		WithGuard(latestPayment).WithAction(renew).WithAction(mergeFeatures).Add().
		From(StatusExpired).When(EventActivate).To(StatusExpired).
		WithAction(mergeFeatures).
		Build()
}

func latestPayment(_ context.Context, _ Status, _ Event, data any) bool {
	p, ok := data.(*payment)
	return ok && !p.date.Before(p.record.ActivationDate)
}

func renew(_ context.Context, _, _ Status, _ Event, data any) error {
	p, ok := data.(*payment)
	if !ok {
		return fmt.Errorf("unexpected activation data %T", data)
	}
	p.record.ActivationDate = p.date
	p.record.Expires = p.date.AddDate(1, 0, 0)
	return nil
}

func mergeFeatures(_ context.Context, _, _ Status, _ Event, data any) error {
	p, ok := data.(*payment)
	if !ok {
		return fmt.Errorf("unexpected activation data %T", data)
	}
	if p.record.Features == nil {
		p.record.Features = make(FeatureSet)
	}
	p.record.Features.Add(p.features...)
	return nil
}
