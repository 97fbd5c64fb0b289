// Package aggregates defines domain-facing aggregate store ports.
//
// Ports avoid persistence details and describe the boundaries at which a
// whole aggregate is written or read atomically.
package aggregates
