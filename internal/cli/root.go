// Package cli is the ecorewards command line: scoring, the coin wallet,
// activity events and the HTTP daemon.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/session"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/daemon"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/infra/sqlite"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/logging"
)

// NewRootCmd builds the ecorewards command tree.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ecorewards",
		Short:         "Sustainability scoring and EcoCoin rewards",
		Long:          "ecorewards scores products for sustainability and keeps an EcoCoin wallet\nwith streaks and achievements for a local user.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Score a product
  ecorewards score --carbon 1.2 --material "Organic Cotton" --durability 4

  # Record a product analysis and check the wallet
  ecorewards analyze --co2 0.3 --product "Bamboo Toothbrush"
  ecorewards balance

  # Run the HTTP API
  ecorewards serve --port 8787`,
	}

	cmd.PersistentFlags().String("home", "", "data directory (default $ECOREWARDS_HOME or ~/.ecorewards)")
	cmd.PersistentFlags().String("user", "", "user whose wallet to use (overrides config)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newServeCmd(),
		newScoreCmd(),
		newBalanceCmd(),
		newHistoryCmd(),
		newCatalogCmd(),
		newRedeemCmd(),
		newAnalyzeCmd(),
		newStreakCmd(),
		newAchievementsCmd(),
		newVerifyCmd(),
		newConfigCmd(),
	)
	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, version string) error {
	return NewRootCmd(version).ExecuteContext(ctx)
}

// ─── Runtime ────────────────────────────────────────────────────────────────

// runtime is what a command needs to reach a user's wallet.
type runtime struct {
	cfg    daemon.Config
	logger zerolog.Logger
	db     *sqlite.DB
	closer io.Closer
}

// loadConfig reads .env, the config file and the environment, then applies
// the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (daemon.Config, error) {
	if err := daemon.LoadDotEnv(); err != nil {
		return daemon.Config{}, err
	}
	home, _ := cmd.Flags().GetString("home")
	cfg, err := daemon.LoadConfig(home)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		cfg.User = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

func openRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := sqlite.Open(cfg.Home)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &runtime{cfg: cfg, logger: logger, db: db, closer: closer}, nil
}

func (r *runtime) Close() error {
	return errors.Join(r.db.Close(), r.closer.Close())
}

func (r *runtime) manager(opts ...session.Option) *session.Manager {
	opts = append([]session.Option{session.WithLogger(r.logger)}, opts...)
	return session.NewManager(r.db, r.cfg.Rewards, opts...)
}

// withSession opens the configured user's session, runs fn and closes the
// store. Opening a session credits the daily login bonus.
func withSession(cmd *cobra.Command, fn func(*session.Session) error) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.manager().Open(cmd.Context(), rt.cfg.User)
	if err != nil {
		return err
	}
	return fn(sess)
}
