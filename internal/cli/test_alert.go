package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestAlertCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test-alert",
		Short: "Send the test email and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), g, nil)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if err := a.dispatcher.SendTestAlert(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "test email sent to %s\n", a.holder.Load().Email.Recipient)
			return nil
		},
	}
}
