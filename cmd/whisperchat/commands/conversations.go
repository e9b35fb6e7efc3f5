package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// conversations: list conversations by approval mode.
func conversationsCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List your conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			convs, err := wire.Relay.Conversations(cmd.Context(), mode)
			if err != nil {
				return err
			}
			if len(convs) == 0 {
				fmt.Println("no conversations")
				return nil
			}
			me := wire.Relay.UID
			for _, conv := range convs {
				peer, _ := conv.Peer(me)
				fmt.Printf("%s  peer=%s  %s\n", conv.ID, peer, conv.StateFor(me))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "approved", "pending, approved or awaiting_peer")
	return cmd
}
