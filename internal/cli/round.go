package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewRoundCmd создаёт группу команд для управления раундами.
func NewRoundCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Manage context rounds",
	}

	cmd.AddCommand(
		newRoundTriggerCmd(clientFn, outputFn),
		newRoundListCmd(clientFn, outputFn),
		newRoundShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newRoundTriggerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger KIND",
		Short: "Run a context round and wait for it to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			round, err := client.TriggerRound(args[0])
			if err != nil {
				// Раунд мог завершиться ошибкой, но вернуть запись.
				if round != nil {
					out.Error(err.Error())
					printRound(out, round)
					return fmt.Errorf("round %s finished with state %s", round.ID, round.State)
				}
				return err
			}

			out.Success(fmt.Sprintf("Round finished: %s (%d actions, %dms)",
				round.ID, len(round.Completed), round.DurationMS))
			printRound(out, round)
			return nil
		},
	}
}

func newRoundListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var kind string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			rounds, err := client.ListRounds(ListRoundsOpts{
				Kind:  kind,
				Limit: limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "KIND", "STATE", "DISCOVERED", "COMPLETED", "DURATION_MS", "STARTED"}
			rows := make([][]string, len(rounds))
			for i, r := range rounds {
				rows[i] = []string{
					r.ID, r.Kind, r.State,
					strconv.Itoa(r.Discovered),
					strconv.Itoa(len(r.Completed)),
					strconv.FormatInt(r.DurationMS, 10),
					r.StartedAt,
				}
			}

			out.Print(headers, rows, rounds)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by context kind")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRoundShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show round details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			round, err := client.GetRound(args[0])
			if err != nil {
				return err
			}

			printRound(out, round)
			return nil
		},
	}
}

// printRound выводит запись раунда: шапку и журнал завершений.
func printRound(out *Output, r *RoundResponse) {
	if r == nil {
		return
	}

	out.Print(
		[]string{"ID", "KIND", "STATE", "DISCOVERED", "ERROR", "DURATION_MS"},
		[][]string{{r.ID, r.Kind, r.State, strconv.Itoa(r.Discovered), r.Error, strconv.FormatInt(r.DurationMS, 10)}},
		r,
	)

	if !out.jsonMode && len(r.Completed) > 0 {
		out.Success("Completion order: " + strings.Join(r.Completed, " -> "))
	}
}
