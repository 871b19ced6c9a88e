package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"locate-mcp/internal/config"
	"locate-mcp/internal/logging"
	"locate-mcp/internal/rpc"
	"locate-mcp/internal/session"
	"locate-mcp/internal/store"
	"locate-mcp/internal/sweeper"
	"locate-mcp/internal/workflow"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	st       *store.FileStore
	sessions session.Cache
)

var rootCmd = &cobra.Command{
	Use:   "locate-mcp",
	Short: "locate-mcp is a dig ticket MCP Server for Texas one-call intake",
	Long: `A specialized MCP Server that walks a conversational agent through utility
locate requests: field-by-field intake, the one-call ticket lifecycle, utility
response tracking, and the business-day compliance math behind lawful digging.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		st, err = store.NewFileStore(cfg.DataPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DataPath).Msg("Failed to open data store")
		}
		sessions = session.Open(cmd.Context(), cfg.RedisURL, cfg.SessionTTL)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("locate-mcp starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Lapsed tickets expire in the background while the stdio loop
		// serves the conversation.
		sw := sweeper.New(st, workflow.NewMachine(st))
		go func() {
			if err := sw.Run(ctx, cfg.SweepSchedule); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Sweeper exited")
			}
		}()

		log.Info().Msg("MCP Server starting Stdio loop")
		server := rpc.NewServer(cfg, st, sessions)
		if err := server.Serve(); err != nil {
			log.Error().Err(err).Msg("Stdio loop ended")
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(revalidateCmd)
}
