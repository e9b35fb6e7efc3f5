// Package server exposes the whisperd HTTP API: accounts, directory,
// conversations, sealed message relay with a websocket live feed, and
// friends. Handlers translate between transport shapes and the internal
// services; all error-to-status mapping happens in one place here.
package server
