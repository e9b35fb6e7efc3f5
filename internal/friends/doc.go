// Package friends manages per-user friend lists and the friend-request
// handshake. A friend entry is a snapshot of the counterparty's directory
// record at add/accept time; accepting a request writes reciprocal entries
// on both sides and deletes the pending request, declining just deletes it.
package friends
