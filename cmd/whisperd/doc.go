// Command whisperd runs the whisperchat server: accounts, public-key
// directory, conversation approval, sealed message relay and the websocket
// live feed. It never holds plaintext or private keys.
package main
