// Package license keeps software license records keyed by serial number and
// applies payment-driven activations to them.
//
// A Store is opened once at startup from a CSV snapshot held in any
// blob.Storage backend. Reads are served from memory. ApplyActivation runs the
// activation transition for one serial under a per-serial lock, then rewrites
// the whole snapshot before returning:
//
//	store, err := license.Open(ctx, storage, license.WithFeatures(catalog.Features()...))
//	if err != nil {
//		return err
//	}
//
//	rec, err := store.ApplyActivation(ctx, license.Activation{
//		Serial:   "ab-12",
//		Features: []string{"feature-parallax"},
//	})
//	// rec.Serial == "AB-12", rec.Status == license.StatusValid
//
// Activation sets the activation date to the payment date and the expiry to
// one calendar year later. A payment older than the current activation date,
// such as a late redelivery, never moves the dates backwards; it only adds its
// features. Purchased features are merged into the active set, so replaying an
// event never duplicates or removes a feature. Expired licenses are renewed;
// revoked licenses reject activation with ErrTransitionNotAllowed.
//
// # Snapshot format
//
//	serial,status,activation_date,expiration_date,measure,parallax
//	AB-12,valid,2025-03-01,2026-03-01,false,true
//
// Feature columns are the known catalog features plus every feature present in
// a record, sorted. Dates use YYYY-MM-DD and may be empty.
//
// # Persistence failures
//
// The updated record is staged and written with the rest of the snapshot. It
// is published to readers only after the write succeeds, so neither Get nor a
// concurrent activation of another serial ever sees an unpersisted record. A
// failed write is retried with exponential backoff. If every attempt fails the
// store is unchanged and the returned error wraps ErrPersist, so the caller can
// report failure and the payment provider will redeliver the event.
package license
