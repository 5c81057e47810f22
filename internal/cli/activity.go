package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/ecoscore"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/rewards"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/session"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// ─── analyze ────────────────────────────────────────────────────────────────

func newAnalyzeCmd() *cobra.Command {
	var (
		co2     float64
		unit    string
		product string
		date    string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Record a completed product analysis",
		Long: `Record a product analysis and earn EcoCoins for the CO2 it surfaced.

Consecutive analysis days build the streak; --date backfills a day other
than today.`,
		Example: `  ecorewards analyze --co2 0.3 --product "Bamboo Toothbrush"
  ecorewards analyze --co2 800 --unit g --date 2026-05-11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("co2") {
				return fmt.Errorf("--co2 is required")
			}
			kg, err := ecoscore.NormalizeToKg(co2, unit)
			if err != nil {
				return err
			}
			day := domain.DateOf(domain.SystemClock.Now())
			if date != "" {
				if day, err = domain.ParseDate(date); err != nil {
					return err
				}
			}

			return withSession(cmd, func(s *session.Session) error {
				var res rewards.AnalysisResult
				if err := s.Do(cmd.Context(), func(e *rewards.Engine) error {
					res = e.RecordAnalysisCompleted(kg, day, product)
					return nil
				}); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "+%d EcoCoins for the analysis\n", res.CoinsAwarded)
				printUnlocks(out, res.NewlyUnlocked)
				fmt.Fprintf(out, "Streak: %d day(s). Balance: %d\n", res.StreakDays, s.Engine().Balance())
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&co2, "co2", 0, "CO2 footprint analyzed")
	cmd.Flags().StringVar(&unit, "unit", "kg", "CO2 unit: g, kg, t, lb")
	cmd.Flags().StringVar(&product, "product", "", "product name")
	cmd.Flags().StringVar(&date, "date", "", "analysis day as YYYY-MM-DD (default today)")
	return cmd
}

func printUnlocks(w io.Writer, us []domain.Unlock) {
	for _, u := range us {
		if u.Reward > 0 {
			fmt.Fprintf(w, "🏆 %s (+%d)\n", u.Reason, u.Reward)
		} else {
			fmt.Fprintf(w, "🏆 %s\n", u.Reason)
		}
	}
}

// ─── streak ─────────────────────────────────────────────────────────────────

func newStreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the product analysis streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *session.Session) error {
				today := domain.DateOf(domain.SystemClock.Now())
				st := s.Engine().Streak()
				cmd.Printf("Streak: %d day(s)\n", s.Engine().StreakDays(today))
				if st.LastActivity != nil {
					cmd.Printf("Last analysis: %s\n", st.LastActivity)
				}
				return nil
			})
		},
	}
}

// ─── achievements ───────────────────────────────────────────────────────────

func newAchievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and progress toward them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *session.Session) error {
				e := s.Engine()
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "\tACHIEVEMENT\tPROGRESS\tREWARD")
				for _, p := range e.Progress() {
					progress := "-"
					if p.Rule.Selector != "" {
						progress = fmt.Sprintf("%g/%g", p.Current, p.Rule.Threshold)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", checkMark(p.Unlocked), p.Rule.Key, progress, p.Rule.Reward)
				}

				unlocked := e.Milestones().Achievements
				days := e.StreakDays(domain.DateOf(domain.SystemClock.Now()))
				for _, th := range e.Config().StreakThresholds {
					fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\n", checkMark(unlocked.Has(th.Key)), th.Key, days, th.Days, th.Reward)
				}
				return w.Flush()
			})
		},
	}
}

func checkMark(ok bool) string {
	if ok {
		return "✓"
	}
	return " "
}
