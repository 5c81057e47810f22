package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/rewards"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/session"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// ─── balance ────────────────────────────────────────────────────────────────

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the EcoCoin balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *session.Session) error {
				e := s.Engine()
				earned, spent := e.Totals()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Balance: %d EcoCoins\n", e.Balance())
				fmt.Fprintf(out, "Earned:  %d\n", earned)
				fmt.Fprintf(out, "Spent:   %d\n", spent)
				return nil
			})
		},
	}
}

// ─── history ────────────────────────────────────────────────────────────────

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent coin transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return withSession(cmd, func(s *session.Session) error {
				txs := s.Engine().Recent(limit)
				if len(txs) == 0 {
					cmd.Println("No transactions yet.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tAMOUNT\tREASON")
				for _, tx := range txs {
					fmt.Fprintf(w, "%s\t%+d\t%s\n", tx.Date.Format("2006-01-02 15:04"), tx.Signed(), tx.Reason)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of transactions to show")
	return cmd
}

// ─── catalog ────────────────────────────────────────────────────────────────

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List redeemable rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOST\tCATEGORY\tNAME")
			for _, r := range cfg.Rewards.Catalog {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.ID, r.Cost, r.Category, r.Name)
			}
			return w.Flush()
		},
	}
}

// ─── redeem ─────────────────────────────────────────────────────────────────

func newRedeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem REWARD_ID",
		Short: "Spend EcoCoins on a catalog reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session.Session) error {
				var res rewards.RedeemResult
				err := s.Do(cmd.Context(), func(e *rewards.Engine) error {
					var err error
					res, err = e.Redeem(args[0])
					return err
				})
				if errors.Is(err, domain.ErrRewardNotFound) {
					return fmt.Errorf("no reward %q; see 'ecorewards catalog'", args[0])
				}
				if err != nil {
					return err
				}
				if !res.OK {
					return fmt.Errorf("not enough EcoCoins for %s: need %d more (balance %d)",
						res.Reward.Name, res.Needed, s.Engine().Balance())
				}
				cmd.Printf("✅ Redeemed %s for %d EcoCoins. Balance: %d\n",
					res.Reward.Name, res.Reward.Cost, s.Engine().Balance())
				return nil
			})
		},
	}
}

// ─── verify ─────────────────────────────────────────────────────────────────

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the balance against the transaction log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *session.Session) error {
				if err := s.Engine().Verify(); err != nil {
					return err
				}
				cmd.Printf("Ledger consistent: balance %d\n", s.Engine().Balance())
				return nil
			})
		},
	}
}
