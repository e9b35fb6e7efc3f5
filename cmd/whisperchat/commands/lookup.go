package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/crypto"
	"whisperchat/internal/domain"
)

// lookup <uid>: print a user's directory entry and key fingerprint.
func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <uid>",
		Short: "Look up a user's public key in the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			entry, err := wire.Relay.Lookup(cmd.Context(), domain.UID(args[0]))
			if err != nil {
				return err
			}
			printEntry(entry)
			return nil
		},
	}
}

// invite <uid>: fetch a directory snapshot through the public invite route.
// Works without a login, so a new user can inspect who invited them.
func inviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <uid>",
		Short: "Resolve an invite link to its directory snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := wire.Relay.Invite(cmd.Context(), domain.UID(args[0]))
			if err != nil {
				return err
			}
			printEntry(entry)
			return nil
		},
	}
}

func printEntry(entry domain.DirectoryEntry) {
	fmt.Printf("uid:  %s\nname: %s\n", entry.UID, entry.DisplayName)
	if entry.PublicKey != "" {
		if fp, err := crypto.KeyFingerprint(entry.PublicKey); err == nil {
			fmt.Printf("fingerprint: %s\n", fp)
		}
	}
}
