package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"wingo/application"
	"wingo/domain/entities"
	"wingo/domain/events"
	"wingo/repository"
	"wingo/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundSettler_ConcurrentSettleExactlyOnce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	round := testutil.SeedLiveRound(t, env.db, time.Minute)
	redBettor := testutil.SeedAccount(t, env.db, "red_bettor", decimal.NewFromInt(1000))
	greenBettor := testutil.SeedAccount(t, env.db, "green_bettor", decimal.NewFromInt(1000))
	violetBettor := testutil.SeedAccount(t, env.db, "violet_bettor", decimal.NewFromInt(1000))

	env.placeBet(t, redBettor, entities.ColorRed, 100)
	env.placeBet(t, greenBettor, entities.ColorGreen, 50)
	env.placeBet(t, violetBettor, entities.ColorViolet, 200)

	settleAt := round.EndTime.Add(time.Second)
	const settlers = 5
	results := make([]*application.SettlementResult, settlers)
	errs := make([]error, settlers)

	var wg sync.WaitGroup
	for i := 0; i < settlers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.settler.SettleRound(ctx, round.ID, settleAt, false, application.TriggerScheduler)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Settled {
			winners++
			require.NotNil(t, results[i].WinningColor)
			assert.Equal(t, entities.ColorGreen, *results[i].WinningColor)
			assert.Equal(t, "100.00", results[i].TotalPayout.StringFixed(2))
			assert.NotEmpty(t, results[i].NextRoundID)
		}
	}
	assert.Equal(t, 1, winners, "exactly one settler completes the round")
	assert.Len(t, env.sink.ofType(events.EventTypeRoundSettled), 1)

	assert.Equal(t, "900.00", testutil.Balance(t, env.db, redBettor.ID).StringFixed(2))
	assert.Equal(t, "1050.00", testutil.Balance(t, env.db, greenBettor.ID).StringFixed(2))
	assert.Equal(t, "800.00", testutil.Balance(t, env.db, violetBettor.ID).StringFixed(2))
	env.requireConserved(t, redBettor, greenBettor, violetBettor)

	completed, err := repository.NewRoundRepository(env.db).GetByID(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RoundStatusCompleted, completed.Status)
	assert.Equal(t, "1.00", completed.AdminCommission.StringFixed(2), "commission is clamped to at least 1")

	live, err := repository.NewRoundRepository(env.db).GetLive(ctx)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.NotEqual(t, round.ID, live.ID)
}

func TestRoundSettler_NotDueAndForce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	round := testutil.SeedLiveRound(t, env.db, time.Minute)

	result, err := env.settler.SettleRound(ctx, round.ID, time.Now().UTC(), false, application.TriggerScheduler)
	require.NoError(t, err)
	assert.False(t, result.Settled, "a round before its end time is not settled")

	result, err = env.settler.SettleRound(ctx, round.ID, time.Now().UTC(), true, application.TriggerAdmin)
	require.NoError(t, err)
	assert.True(t, result.Settled)

	result, err = env.settler.SettleRound(ctx, round.ID, time.Now().UTC(), true, application.TriggerAdmin)
	require.NoError(t, err)
	assert.False(t, result.Settled, "a completed round is never settled twice")

	_, err = env.settler.SettleRound(ctx, "G0MISSING", time.Now().UTC(), true, application.TriggerAdmin)
	assert.ErrorIs(t, err, entities.ErrRoundNotFound)
}

func TestRoundSettler_LoseScenario(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	round := testutil.SeedLiveRound(t, env.db, time.Minute)
	player := testutil.SeedAccount(t, env.db, "lonely_player", decimal.NewFromInt(1000))
	env.placeBet(t, player, entities.ColorRed, 100)
	assert.Equal(t, "900.00", testutil.Balance(t, env.db, player.ID).StringFixed(2))

	settleAt := round.EndTime.Add(time.Second)
	result, err := env.settler.SettleRound(ctx, round.ID, settleAt, false, application.TriggerScheduler)
	require.NoError(t, err)
	require.True(t, result.Settled)
	assert.Equal(t, entities.ColorGreen, *result.WinningColor, "green and violet tie at zero and green comes first")
	assert.Equal(t, 1, result.BetsSettled)
	assert.True(t, result.TotalPayout.IsZero())

	assert.Equal(t, "900.00", testutil.Balance(t, env.db, player.ID).StringFixed(2))
	env.requireConserved(t, player)

	bets, err := env.game.MyBets(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, entities.BetStatusLost, bets[0].Status)
	require.NotNil(t, bets[0].WinningColor)
	assert.Equal(t, entities.ColorGreen, *bets[0].WinningColor)

	recent, err := env.game.RecentResult(ctx, player.ID, settleAt.Add(2*time.Second))
	require.NoError(t, err)
	require.NotNil(t, recent)
	assert.Equal(t, round.ID, recent.Round.ID)
	assert.Equal(t, entities.BetStatusLost, recent.Bet.Status)

	stale, err := env.game.RecentResult(ctx, player.ID, settleAt.Add(10*time.Second))
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestRoundSettler_ResumePendingBets(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	round := testutil.SeedLiveRound(t, env.db, time.Minute)
	winner := testutil.SeedAccount(t, env.db, "stranded_winner", decimal.NewFromInt(500))
	loser := testutil.SeedAccount(t, env.db, "stranded_loser", decimal.NewFromInt(500))
	env.placeBet(t, winner, entities.ColorViolet, 100)
	env.placeBet(t, loser, entities.ColorRed, 100)

	// Complete the round without settling its bets, as if the settler crashed after closing it
	completed, err := repository.NewRoundRepository(env.db).Complete(ctx, round.ID, entities.ColorViolet, 0, decimal.NewFromInt(4), time.Now().UTC())
	require.NoError(t, err)
	require.True(t, completed)

	result, err := env.settler.ResumePendingBets(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rounds)
	assert.Equal(t, 2, result.BetsSettled)
	assert.Zero(t, result.BetsFailed)

	assert.Equal(t, "600.00", testutil.Balance(t, env.db, winner.ID).StringFixed(2))
	assert.Equal(t, "400.00", testutil.Balance(t, env.db, loser.ID).StringFixed(2))

	again, err := env.settler.ResumePendingBets(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, again.Rounds)
	assert.Equal(t, "600.00", testutil.Balance(t, env.db, winner.ID).StringFixed(2))
	env.requireConserved(t, winner, loser)
}

func TestRoundSettler_UnlocksWithdrawalCommission(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	round := testutil.SeedLiveRound(t, env.db, time.Minute)
	player := testutil.SeedAccount(t, env.db, "wagering_player", decimal.NewFromInt(2000))

	withdrawal, err := env.wallet.RequestWithdrawal(ctx, withdrawalRequest(player.ID, 1500, ""))
	require.NoError(t, err)
	assert.Equal(t, "150.00", withdrawal.MinBetAmount.StringFixed(2))

	env.placeBet(t, player, entities.ColorRed, 100)
	result, err := env.settler.SettleRound(ctx, round.ID, round.EndTime.Add(time.Second), false, application.TriggerScheduler)
	require.NoError(t, err)
	assert.Zero(t, result.CommissionsUnlocked, "100 of 150 wagered does not unlock")

	next, err := repository.NewRoundRepository(env.db).GetLive(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	_, err = env.game.PlaceBet(ctx, betRequest(player.ID, entities.ColorRed, 50))
	require.NoError(t, err)

	unlocked, err := env.settler.ReconcileCommissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unlocked)

	stored, err := repository.NewWithdrawalRepository(env.db).GetByID(ctx, withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.CommissionStatusCompleted, stored.CommissionStatus)
	assert.Equal(t, "7.50", stored.CommissionEarned.StringFixed(2))

	unlocked, err = env.settler.ReconcileCommissions(ctx)
	require.NoError(t, err)
	assert.Zero(t, unlocked)
}

func TestRoundScheduler_Tick(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	rounds := repository.NewRoundRepository(env.db)

	t.Run("opens a round when none is live", func(t *testing.T) {
		scheduler := application.NewRoundScheduler(env.settler, env.cfg.SchedulerSchedule)
		scheduler.Tick(ctx)

		live, err := rounds.GetLive(ctx)
		require.NoError(t, err)
		require.NotNil(t, live)

		scheduler.Tick(ctx)
		again, err := rounds.GetLive(ctx)
		require.NoError(t, err)
		assert.Equal(t, live.ID, again.ID, "a live round that is not due is left alone")

		_, err = rounds.Complete(ctx, live.ID, entities.ColorGreen, 0, decimal.Zero, time.Now().UTC())
		require.NoError(t, err)
	})

	t.Run("settles an expired round", func(t *testing.T) {
		expired := testutil.SeedExpiredRound(t, env.db)

		application.NewRoundScheduler(env.settler, env.cfg.SchedulerSchedule).Tick(ctx)

		settled, err := rounds.GetByID(ctx, expired.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.RoundStatusCompleted, settled.Status)

		live, err := rounds.GetLive(ctx)
		require.NoError(t, err)
		require.NotNil(t, live)
		assert.NotEqual(t, expired.ID, live.ID)
	})
}

func TestRoundScheduler_StartRejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	scheduler := application.NewRoundScheduler(nil, "not a schedule")
	stop, err := scheduler.Start(context.Background())
	assert.Error(t, err)
	assert.Nil(t, stop)
}
