// Package domain holds the types shared by the record store, its persistence
// adapters and its front ends: labels, the two entry flavors (Event with a
// tag set, Checkpoint with a single category), entry identifiers and the
// sentinel errors callers match with errors.Is.
package domain
