package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// ─── State Store ────────────────────────────────────────────────────────────
// DB implements domain.StateStore. A user's state is written in a single
// transaction so a crash never leaves the balance out of step with the log.

var _ domain.StateStore = (*DB)(nil)

// Load reads a user's full state. It returns domain.ErrStateNotFound when
// the user has never been saved and wraps domain.ErrCorruptState when a
// stored row cannot be decoded.
func (db *DB) Load(ctx context.Context, userID string) (domain.State, error) {
	var (
		st       domain.State
		lastDate sql.NullString
	)
	m := &st.Milestones
	err := db.db.QueryRowContext(ctx, `
		SELECT balance, opening_balance, streak_days, last_analysis_date,
		       products_analyzed, sustainable_purchases, total_co2_kg, quizzes_completed,
		       marketplace_listed, marketplace_sold, marketplace_purchased,
		       packages_returned, feedback_submitted
		FROM user_state WHERE user_id = ?
	`, userID).Scan(
		&st.Balance, &st.OpeningBalance, &st.Streak.Days, &lastDate,
		&m.ProductsAnalyzed, &m.SustainablePurchases, &m.TotalCO2FromAnalysesKg, &m.QuizzesCompleted,
		&m.MarketplaceListed, &m.MarketplaceSold, &m.MarketplacePurchased,
		&m.PackagesReturned, &m.FeedbackSubmitted,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.State{}, domain.ErrStateNotFound
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	if st.Balance < 0 || st.OpeningBalance < 0 {
		return domain.State{}, fmt.Errorf("%w: negative balance %d (opening %d)", domain.ErrCorruptState, st.Balance, st.OpeningBalance)
	}
	if lastDate.Valid && lastDate.String != "" {
		d, err := domain.ParseDate(lastDate.String)
		if err != nil {
			return domain.State{}, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
		}
		st.Streak.LastActivity = &d
	}

	if st.Transactions, err = db.loadTransactions(ctx, userID); err != nil {
		return domain.State{}, err
	}
	if m.Achievements, err = db.loadAchievements(ctx, userID); err != nil {
		return domain.State{}, err
	}
	return st, nil
}

func (db *DB) loadTransactions(ctx context.Context, userID string) ([]domain.CoinTransaction, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, type, amount, reason, date, context
		FROM coin_transactions WHERE user_id = ? ORDER BY seq DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.CoinTransaction
	for rows.Next() {
		var (
			tx     domain.CoinTransaction
			date   string
			rawCtx string
			txType string
		)
		if err := rows.Scan(&tx.ID, &txType, &tx.Amount, &tx.Reason, &date, &rawCtx); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = domain.TransactionType(txType)
		if tx.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("%w: transaction %s date: %v", domain.ErrCorruptState, tx.ID, err)
		}
		if err := json.Unmarshal([]byte(rawCtx), &tx.Context); err != nil {
			return nil, fmt.Errorf("%w: transaction %s context: %v", domain.ErrCorruptState, tx.ID, err)
		}
		if !tx.Context.Valid() {
			return nil, fmt.Errorf("%w: transaction %s context kind %q", domain.ErrCorruptState, tx.ID, tx.Context.Kind)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (db *DB) loadAchievements(ctx context.Context, userID string) (domain.AchievementSet, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT achievement_key FROM achievements WHERE user_id = ? ORDER BY achievement_key`, userID)
	if err != nil {
		return domain.AchievementSet{}, fmt.Errorf("load achievements: %w", err)
	}
	defer rows.Close()

	var set domain.AchievementSet
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return domain.AchievementSet{}, fmt.Errorf("scan achievement: %w", err)
		}
		set.Add(key)
	}
	return set, rows.Err()
}

// Save writes a user's full state. Log rows already stored are kept as-is
// and only the new tail is inserted; if the stored log is not a prefix of
// the given one it is rewritten.
func (db *DB) Save(ctx context.Context, userID string, st domain.State) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var lastDate sql.NullString
	if st.Streak.LastActivity != nil {
		lastDate = sql.NullString{String: st.Streak.LastActivity.String(), Valid: true}
	}
	m := st.Milestones
	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_state (
			user_id, balance, opening_balance, streak_days, last_analysis_date,
			products_analyzed, sustainable_purchases, total_co2_kg, quizzes_completed,
			marketplace_listed, marketplace_sold, marketplace_purchased,
			packages_returned, feedback_submitted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET
			balance               = excluded.balance,
			opening_balance       = excluded.opening_balance,
			streak_days           = excluded.streak_days,
			last_analysis_date    = excluded.last_analysis_date,
			products_analyzed     = excluded.products_analyzed,
			sustainable_purchases = excluded.sustainable_purchases,
			total_co2_kg          = excluded.total_co2_kg,
			quizzes_completed     = excluded.quizzes_completed,
			marketplace_listed    = excluded.marketplace_listed,
			marketplace_sold      = excluded.marketplace_sold,
			marketplace_purchased = excluded.marketplace_purchased,
			packages_returned     = excluded.packages_returned,
			feedback_submitted    = excluded.feedback_submitted,
			updated_at            = datetime('now')
	`, userID, st.Balance, st.OpeningBalance, st.Streak.Days, lastDate,
		m.ProductsAnalyzed, m.SustainablePurchases, m.TotalCO2FromAnalysesKg, m.QuizzesCompleted,
		m.MarketplaceListed, m.MarketplaceSold, m.MarketplacePurchased,
		m.PackagesReturned, m.FeedbackSubmitted)
	if err != nil {
		return fmt.Errorf("save user %s: %w", userID, err)
	}

	if err := saveTransactions(ctx, tx, userID, st.Transactions); err != nil {
		return err
	}
	if err := saveAchievements(ctx, tx, userID, m.Achievements.Keys()); err != nil {
		return err
	}
	return tx.Commit()
}

// saveTransactions persists log, given newest first, as seq 0..n-1 oldest
// first.
func saveTransactions(ctx context.Context, tx *sql.Tx, userID string, log []domain.CoinTransaction) error {
	n := len(log)
	oldest := func(i int) domain.CoinTransaction { return log[n-1-i] }

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM coin_transactions WHERE user_id = ?`, userID).Scan(&stored); err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}

	start := stored
	if stored > n {
		start = 0
	} else if stored > 0 {
		var lastID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM coin_transactions WHERE user_id = ? AND seq = ?`, userID, stored-1).Scan(&lastID)
		if err != nil || lastID != oldest(stored-1).ID {
			start = 0
		}
	}
	if start == 0 && stored > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM coin_transactions WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("reset transactions: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO coin_transactions (user_id, seq, id, type, amount, reason, date, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for i := start; i < n; i++ {
		t := oldest(i)
		rawCtx, err := json.Marshal(t.Context)
		if err != nil {
			return fmt.Errorf("encode transaction %s context: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, userID, i, t.ID, string(t.Type), t.Amount, t.Reason,
			t.Date.Format(time.RFC3339Nano), string(rawCtx)); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

func saveAchievements(ctx context.Context, tx *sql.Tx, userID string, keys []string) error {
	if len(keys) == 0 {
		_, err := tx.ExecContext(ctx, `DELETE FROM achievements WHERE user_id = ?`, userID)
		return err
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, userID)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO achievements (user_id, achievement_key) VALUES (?, ?)
			ON CONFLICT(user_id, achievement_key) DO NOTHING
		`, userID, k); err != nil {
			return fmt.Errorf("insert achievement %s: %w", k, err)
		}
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	_, err := tx.ExecContext(ctx,
		`DELETE FROM achievements WHERE user_id = ? AND achievement_key NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("prune achievements: %w", err)
	}
	return nil
}

// Delete removes everything stored for a user.
func (db *DB) Delete(ctx context.Context, userID string) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM user_state WHERE user_id = ?`, userID)
	return err
}

// Users lists every user with saved state.
func (db *DB) Users(ctx context.Context) ([]string, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT user_id FROM user_state ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
