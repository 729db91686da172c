package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewActionCmd создаёт группу команд для просмотра действий.
func NewActionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Inspect registered actions",
	}

	cmd.AddCommand(newActionListCmd(clientFn, outputFn))

	return cmd
}

func newActionListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			actions, err := client.ListActions(kind)
			if err != nil {
				return err
			}

			headers := []string{"MODULE", "ACTION", "PHASE", "DEPENDS_ON", "CONTEXTS"}
			rows := make([][]string, len(actions))
			for i, a := range actions {
				rows[i] = []string{
					a.Module, a.Action,
					strconv.Itoa(a.Phase),
					strings.Join(a.DependsOn, ","),
					strings.Join(a.Contexts, ","),
				}
			}

			out.Print(headers, rows, actions)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only actions participating in this context kind")

	return cmd
}
