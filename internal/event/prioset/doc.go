// Package prioset provides an ordered handler container for the event bus.
//
// A Set keeps its elements sorted by ascending integer priority. Elements with
// equal priority keep their insertion order, so handlers registered later at the
// same priority always run after earlier ones.
//
// Sets are copy-on-write: Add publishes a fresh backing slice and never touches
// a slice previously returned by Items. A caller holding a snapshot can
// therefore iterate it while another goroutine registers new elements, as long
// as writers are serialized by the owner.
package prioset
