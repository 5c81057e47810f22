package rewards

// Observer receives engine activity for metrics. Calls happen with the
// engine lock held and must not call back into the engine.
type Observer interface {
	CoinsEarned(source string, amount int64)
	CoinsSpent(amount int64)
	DebitRejected()
	BalanceChanged(balance int64)
	AchievementUnlocked(key string)
	StreakChanged(days int)
	EcoScoreComputed(score float64)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) CoinsEarned(string, int64)  {}
func (NopObserver) CoinsSpent(int64)           {}
func (NopObserver) DebitRejected()             {}
func (NopObserver) BalanceChanged(int64)       {}
func (NopObserver) AchievementUnlocked(string) {}
func (NopObserver) StreakChanged(int)          {}
func (NopObserver) EcoScoreComputed(float64)   {}
