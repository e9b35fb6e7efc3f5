package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// login <email>: authenticate and persist the session profile.
func loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in to the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			sess, err := wire.Relay.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			profile, err := wire.Keystore.LoadProfile()
			if err != nil {
				return err
			}
			profile.UID = sess.UID
			profile.Email = email
			profile.ServerURL = serverURL
			profile.Token = sess.Token
			if err := wire.Keystore.SaveProfile(profile); err != nil {
				return err
			}

			fmt.Printf("Logged in.\nuid: %s\n", sess.UID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
