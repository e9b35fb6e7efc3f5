package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/crypto"
	"whisperchat/internal/domain"
)

// rotate: replace the key pair and republish. The directory keeps no
// history; messages sealed to the old key stay readable only where the old
// private key still exists.
func rotateCmd() *cobra.Command {
	var (
		keyType string
		bits    int
	)
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the key pair and republish the public half",
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

			pub, err := wire.Keys.Rotate(profile.DisplayName, profile.Email, domain.KeyType(keyType), bits, passphrase)
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
			fmt.Printf("Key rotated.\nNew fingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyType, "type", "ecc", "key type: ecc or rsa")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA strength (2048 or 4096)")
	return cmd
}
