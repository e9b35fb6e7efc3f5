// Package relay is the client side of the whisperd HTTP API.
//
// The server acts as a mediator for end-to-end encrypted conversations: it
// stores the public-key directory, conversation approval records and sealed
// envelopes, and streams live messages over a websocket. This package offers
// a concrete HTTP/websocket client for talking to it.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Error responses carry a machine-readable code which is mapped
// back onto the domain sentinel errors, so callers can use errors.Is the
// same way they would against a local store.
package relay
