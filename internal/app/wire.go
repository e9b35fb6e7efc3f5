package app

import (
	"net/http"

	"whisperchat/internal/domain"
	"whisperchat/internal/keyring"
	"whisperchat/internal/relay"
	"whisperchat/internal/stream"
)

// Wire bundles the client's stores, session and relay for the CLI.
type Wire struct {
	Keystore *keyring.Store
	Keys     *keyring.Session
	Relay    *relay.HTTPClient
	HTTP     *http.Client
}

// NewWire constructs the dependency graph from cfg. A previously saved
// profile restores the relay identity, so commands after login do not have
// to re-authenticate.
func NewWire(cfg Config) (*Wire, error) {
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	ks := keyring.NewStore(cfg.Home)
	rc := relay.NewHTTP(cfg.ServerURL)
	rc.HTTP = httpClient

	profile, err := ks.LoadProfile()
	if err != nil {
		return nil, err
	}
	if profile.Token != "" {
		rc.SetSession(domain.Session{UID: profile.UID, Token: profile.Token})
	}

	return &Wire{
		Keystore: ks,
		Keys:     keyring.NewSession(ks),
		Relay:    rc,
		HTTP:     httpClient,
	}, nil
}

// Stream returns the message pipeline for the logged-in identity.
func (w *Wire) Stream() *stream.Service {
	return stream.New(w.Relay, w.Keys, w.Relay.UID)
}
