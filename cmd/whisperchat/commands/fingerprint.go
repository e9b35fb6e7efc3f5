package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/crypto"
)

// fingerprint: print the local key's fingerprint and lock state.
func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Show the local key fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			locked, err := wire.Keystore.LoadLockedKey()
			if err != nil {
				return err
			}
			fp, err := crypto.KeyFingerprint(locked)
			if err != nil {
				return err
			}
			isLocked, err := crypto.IsLocked(locked)
			if err != nil {
				return err
			}
			state := "locked"
			if !isLocked {
				state = "unprotected"
			}
			fmt.Printf("Fingerprint: %s (%s)\n", fp, state)
			return nil
		},
	}
}
