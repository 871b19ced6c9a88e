package commands

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"locate-mcp/internal/sweeper"
	"locate-mcp/internal/workflow"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire lapsed tickets once and exit",
	Long: `Runs a single expiration pass over the stored tickets. Anything still
waiting on utility responses past its expiration day moves to EXPIRED. The
serving mode runs the same pass on a schedule; this command exists for cron
setups and manual runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		sw := sweeper.New(st, workflow.NewMachine(st))
		n, err := sw.SweepOnce(time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("Sweep failed")
		}
		log.Info().Int("expired", n).Msg("Sweep complete")
	},
}
