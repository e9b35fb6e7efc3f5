// Package commands implements the whisperchat CLI: account signup/login,
// key lifecycle (generate, rotate, export, import, fingerprint), directory
// lookups, conversation request/approve/list, sending and live-watching
// sealed messages, and friends management.
package commands
