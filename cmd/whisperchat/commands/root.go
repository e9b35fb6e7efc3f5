package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"whisperchat/internal/app"
)

var (
	home       string
	serverURL  string
	passphrase string

	wire *app.Wire
)

// Execute builds the command tree and runs it.
func Execute() error {
	root := &cobra.Command{
		Use:   "whisperchat",
		Short: "End-to-end encrypted chat CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".whisperchat")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			wire, err = app.NewWire(app.Config{Home: home, ServerURL: serverURL})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.whisperchat)")
	root.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8080", "whisperd base URL")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the private key")

	root.AddCommand(
		signupCmd(), loginCmd(),
		keygenCmd(), rotateCmd(), fingerprintCmd(), exportCmd(), importCmd(),
		lookupCmd(), inviteCmd(),
		requestCmd(), approveCmd(), conversationsCmd(),
		sendCmd(), watchCmd(),
		friendsCmd(),
	)
	return root.Execute()
}

// requireLogin checks that a profile with a bearer token exists.
func requireLogin() error {
	if wire.Relay.Token == "" {
		return fmt.Errorf("not logged in. run signup or login first")
	}
	return nil
}

// requirePassphrase unlocks the session key with -p.
func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return wire.Keys.Unlock(passphrase)
}
