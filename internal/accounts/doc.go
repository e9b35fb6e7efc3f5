// Package accounts handles signup and login for whisperd.
//
// Accounts are identified by an opaque uid and authenticated by email plus
// bcrypt-hashed password; successful auth yields a signed JWT bearer token.
// Signup is gated by an invisible bot-detection challenge: the client
// submits a challenge token which a Verifier scores server-side before the
// account is created. Accounts never carry key material; keys live in the
// directory and on the client.
package accounts
