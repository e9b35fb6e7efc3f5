// Package app wires client dependencies for the CLI.
//
// It builds the local key store and session, the relay client and the
// message stream from Config, exposing them via the Wire struct for
// commands to use.
package app
