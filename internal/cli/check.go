package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/hostwatch/internal/alerts"
)

var errUnhealthy = errors.New("system unhealthy")

func newCheckCommand(g *globalOptions) *cobra.Command {
	var (
		noAlert bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one check cycle and exit 1 when any resource is unhealthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), g, nil)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if noAlert {
				a.engine = a.engineWithoutEmail()
			}
			healthy := a.engine.CheckAll(cmd.Context())
			a.writeTextfile()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(a.engine.LastReports()); err != nil {
					return err
				}
			} else {
				for _, r := range a.engine.LastReports() {
					for _, res := range r.Resources {
						fmt.Fprintln(out, formatResult(r.Disk, res))
					}
				}
			}
			if !healthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noAlert, "no-alert", false, "evaluate only, never send email")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the check reports as JSON")
	return cmd
}

// formatResult renders one resource verdict as a single line.
func formatResult(disk string, res alerts.ResourceResult) string {
	value := "n/a"
	if res.Value != nil {
		value = strconv.FormatFloat(*res.Value, 'f', 1, 64) + res.Kind.Unit()
	}
	state := "ok"
	if !res.Healthy {
		state = "UNHEALTHY"
		if res.Alert != "" {
			state += " (alert " + res.Alert + ")"
		}
	}
	line := fmt.Sprintf("%-12s %-24s %-12s threshold %-6s %s",
		disk, res.Resource, value, strconv.FormatFloat(res.Threshold, 'f', -1, 64), state)
	if res.Error != "" {
		line += ": " + res.Error
	}
	return line
}
