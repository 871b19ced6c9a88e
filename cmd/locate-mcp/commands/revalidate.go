package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"locate-mcp/internal/store"
	"locate-mcp/internal/ticket"
	"locate-mcp/internal/validation"
	"locate-mcp/internal/workflow"
)

var revalidateConcurrency int

var revalidateCmd = &cobra.Command{
	Use:   "revalidate",
	Short: "Re-run validation over every open draft",
	Long: `Re-validates all DRAFT and VALIDATED tickets against the current rule
table, refreshing stored gaps and moving tickets across the draft/validated
boundary where the verdict changed. Run it after a rules change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := validation.NewEngine()
		machine := workflow.NewMachine(st)

		var tickets []ticket.Ticket
		for _, status := range []ticket.Status{ticket.StatusDraft, ticket.StatusValidated} {
			batch, err := st.ListTickets(store.Filter{Status: status})
			if err != nil {
				return err
			}
			tickets = append(tickets, batch...)
		}

		g := new(errgroup.Group)
		g.SetLimit(revalidateConcurrency)
		for _, t := range tickets {
			t := t
			g.Go(func() error {
				res, err := engine.Validate(&t)
				if err != nil {
					return err
				}
				t.Gaps = res.Gaps

				switch {
				case t.Status == ticket.StatusDraft && res.IsValid:
					t, err = machine.Transition(t, ticket.StatusValidated, "revalidate", map[string]string{"trigger": "revalidation"})
				case t.Status == ticket.StatusValidated && !res.IsValid:
					t, err = machine.Transition(t, ticket.StatusDraft, "revalidate", map[string]string{"trigger": "revalidation"})
				}
				if err != nil {
					return err
				}
				return st.SaveTicket(t)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		log.Info().Int("tickets", len(tickets)).Msg("Revalidation complete")
		return nil
	},
}

func init() {
	revalidateCmd.Flags().IntVar(&revalidateConcurrency, "concurrency", 4, "tickets validated in parallel")
}
