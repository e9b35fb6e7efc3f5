// Package convo implements the two-party conversation approval handshake.
//
// A conversation is keyed by a deterministic id derived from the sorted
// participant pair, so requesting the same pair twice (in either order, or
// concurrently) converges on one record. The initiator's flag starts true,
// the counterparty's false; each participant can only ever set their own
// flag, and flags never unset. Messages flow once both flags are true.
package convo
