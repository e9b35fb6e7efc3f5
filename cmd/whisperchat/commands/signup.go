package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/domain"
	"whisperchat/internal/keyring"
)

// signup <email>: create an account, generate a key pair and publish the
// public half to the directory.
func signupCmd() *cobra.Command {
	var (
		password  string
		name      string
		challenge string
		confirm   string
		keyType   string
		bits      int
	)
	cmd := &cobra.Command{
		Use:   "signup <email>",
		Short: "Create an account and publish a fresh key pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			email := args[0]
			if name == "" {
				name = email
			}

			sess, err := wire.Relay.Signup(cmd.Context(), email, password, challenge)
			if err != nil {
				return err
			}

			pub, err := wire.Keys.Generate(name, email, domain.KeyType(keyType), bits, passphrase, confirm)
			if err != nil {
				return err
			}
			if err := wire.Relay.PublishKey(cmd.Context(), domain.DirectoryEntry{
				UID:         sess.UID,
				PublicKey:   pub,
				DisplayName: name,
			}); err != nil {
				return err
			}

			if err := wire.Keystore.SaveProfile(keyring.Profile{
				UID:         sess.UID,
				Email:       email,
				DisplayName: name,
				ServerURL:   serverURL,
				Token:       sess.Token,
			}); err != nil {
				return err
			}

			fmt.Printf("Account created.\nuid: %s\n", sess.UID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name (default: email)")
	cmd.Flags().StringVar(&challenge, "challenge", "", "bot-challenge token")
	cmd.Flags().StringVar(&confirm, "confirm", "", "passphrase confirmation")
	cmd.Flags().StringVar(&keyType, "type", "ecc", "key type: ecc or rsa")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA strength (2048 or 4096)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
