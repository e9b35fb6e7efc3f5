// Package stream orchestrates the client side of a conversation: sealing
// outgoing messages to both participants' public keys, subscribing to the
// ordered feed of sealed records, opening each record with the session key,
// and marking foreign records read.
//
// Decryption failures are isolated per message: a record that cannot be
// opened renders as a placeholder while the rest of the feed continues. A
// feed-level error terminates the subscription; the caller resubscribes.
package stream
