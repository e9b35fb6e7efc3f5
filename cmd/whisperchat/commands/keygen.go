package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/crypto"
	"whisperchat/internal/domain"
)

// keygen: generate a key pair for an existing account and publish the
// public half. Replaces any previous local key.
func keygenCmd() *cobra.Command {
	var (
		confirm string
		keyType string
		bits    int
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and publish the public half",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}

			profile, err := wire.Keystore.LoadProfile()
			if err != nil {
				return err
			}

			pub, err := wire.Keys.Generate(profile.DisplayName, profile.Email, domain.KeyType(keyType), bits, passphrase, confirm)
			if err != nil {
				return err
			}
			if err := wire.Relay.PublishKey(cmd.Context(), domain.DirectoryEntry{
				UID:         profile.UID,
				PublicKey:   pub,
				DisplayName: profile.DisplayName,
			}); err != nil {
				return err
			}

			fp, err := crypto.KeyFingerprint(pub)
			if err != nil {
				return err
			}
			fmt.Printf("Key generated and published.\nFingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "passphrase confirmation")
	cmd.Flags().StringVar(&keyType, "type", "ecc", "key type: ecc or rsa")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA strength (2048 or 4096)")
	return cmd
}
