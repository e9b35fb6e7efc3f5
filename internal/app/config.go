package app

import "net/http"

// Config holds runtime wiring options for building the client.
type Config struct {
	Home      string       // config directory, e.g. $HOME/.whisperchat
	ServerURL string       // whisperd base URL, e.g. http://127.0.0.1:8080
	HTTP      *http.Client // optional; defaults to http.DefaultClient
}
