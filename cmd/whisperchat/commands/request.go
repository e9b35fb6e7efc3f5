package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/domain"
)

// request <peer-uid>: request (or re-find) the conversation with a peer.
func requestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <peer-uid>",
		Short: "Request a conversation with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			id, created, err := wire.Relay.RequestConversation(cmd.Context(), domain.UID(args[0]))
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Conversation requested.\nid: %s\n", id)
			} else {
				fmt.Printf("Conversation already exists.\nid: %s\n", id)
			}
			return nil
		},
	}
}
