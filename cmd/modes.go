package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// modesCmd represents the modes command
var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List configured web modes in resolution order",
	Long: `List the configured web modes in the order they are tried. The preferred
mode comes first, and modes whose pattern does not compile are shown as
disabled.`,
	PreRunE: initializeApp,
	RunE:    runModes,
}

func init() {
	rootCmd.AddCommand(modesCmd)
}

func runModes(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	order := resolver.Order()

	if len(order) == 0 {
		fmt.Fprintln(out, "No web modes configured.")
		return nil
	}

	fmt.Fprintf(out, "%d web modes:\n", len(order))
	fmt.Fprintln(out, strings.Repeat("-", 80))

	for i, mode := range order {
		fmt.Fprintf(out, "%2d. %s", i+1, mode.Name())
		if mode.Name() == resolver.Preferred() {
			fmt.Fprint(out, " [PREFERRED]")
		}
		if !mode.Valid() {
			fmt.Fprint(out, " [DISABLED]")
		}
		fmt.Fprintln(out)

		if mode.Description() != "" {
			fmt.Fprintf(out, "    %s\n", mode.Description())
		}
		fmt.Fprintf(out, "    Pattern:  %s\n", mode.Pattern())
		fmt.Fprintf(out, "    Template: %s\n", mode.Template())
		if cookies := mode.Cookies(); len(cookies) > 0 {
			names := make([]string, 0, len(cookies))
			for _, c := range cookies {
				names = append(names, c.Name)
			}
			fmt.Fprintf(out, "    Cookies:  %s\n", strings.Join(names, ", "))
		}
		if dropped := mode.DroppedCookies(); len(dropped) > 0 {
			fmt.Fprintf(out, "    Warning:  ignored cookie segments: %s\n", strings.Join(dropped, "; "))
		}
		if err := mode.Err(); err != nil {
			fmt.Fprintf(out, "    Error:    %v\n", err)
		}
		if unbound := mode.UnboundPlaceholders(); len(unbound) > 0 {
			fmt.Fprintf(out, "    Warning:  template uses placeholders the pattern never binds: %s\n", strings.Join(unbound, ", "))
		}
	}

	return nil
}
