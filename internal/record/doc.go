// Package record implements the in-memory record store: labels, entries
// keyed by Unix timestamp, and the two ways of addressing an entry.
//
// An entry is addressed either by its timestamp or by its position, where
// position 0 is the newest entry. Positions shift whenever an entry is added
// or removed ahead of them; resolve them against the store right before use.
//
// Labels are referenced by id. Adding or attaching labels by short name fails
// as a whole when any name is unknown, and removing a label strips it from
// every entry. At most one entry exists per timestamp: adding at a taken
// timestamp replaces the previous entry.
//
// Typical usage
//
//	s := record.NewEvents()
//	_, _ = s.AddLabel("Work", "wrk")
//	_ = s.AddEntry(time.Now().Unix(), "standup", []string{"wrk"})
//	e, ok := s.GetEntry(domain.ByPosition(0))
//	d, ok := s.Duration(domain.ByPosition(0))
package record
