// Package requestid assigns every HTTP request an identifier that shows up in
// responses, error envelopes and log records.
package requestid
