// Package environment parses APP_ENV and carries the result through request
// contexts and log records.
package environment
