package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisperchat/internal/domain"
)

// watch <conv-id>: stream the conversation to stdout until interrupted.
// History replays first, then live messages and read-receipt updates.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <conv-id>",
		Short: "Follow a conversation live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(); err != nil {
				return err
			}
			if err := requirePassphrase(); err != nil {
				return err
			}
			defer wire.Keys.Lock()

			events, err := wire.Stream().Subscribe(cmd.Context(), domain.ConversationID(args[0]))
			if err != nil {
				return err
			}
			for ev := range events {
				if ev.Err != nil {
					return fmt.Errorf("feed terminated: %w", ev.Err)
				}
				printRecord(ev.Record)
			}
			return nil
		},
	}
}

func printRecord(r domain.DecryptedMessage) {
	who := r.Sender.String()
	if r.IsMine {
		who = "me"
	}
	flags := ""
	if r.Unverified {
		flags = " (unverified)"
	}
	fmt.Printf("[%s] %s: %s%s\n", r.Timestamp.Local().Format("15:04:05"), who, r.Text, flags)
}
