package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/tests/testutil"
)

func TestConcurrentWagers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	testDB.TruncateAll(ctx)

	env := newTestEnv(t, testDB, "http://127.0.0.1:0")

	t.Run("same user joining concurrently enters once", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		creator := testDB.CreateTestUser(ctx, "creator", 5000)
		user := testDB.CreateTestUser(ctx, "joiner", 50000)
		wager := testDB.CreateTestWager(ctx, creator.ID, 1000, time.Now().UTC().Add(time.Hour))

		numJoins := 10

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(numJoins)
		for range numJoins {
			go func() {
				defer wg.Done()

				_, err := env.Join.Join(ctx, wager.ID, user.ID, domain.SideA)
				if err == nil {
					successCount.Add(1)
					return
				}
				if !errors.Is(err, domain.ErrAlreadyJoined) {
					t.Errorf("unexpected join error: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := successCount.Load(); got != 1 {
			t.Errorf("expected exactly 1 successful join, got %d", got)
		}
		if got := testDB.UserBalance(ctx, user.ID); got != 49000 {
			t.Errorf("expected exactly one stake debited, balance %d", got)
		}
	})

	t.Run("concurrent joins never overdraw the balance", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		creator := testDB.CreateTestUser(ctx, "creator", 5000)
		// Enough for exactly 3 stakes of 1000.
		user := testDB.CreateTestUser(ctx, "joiner", 3000)

		numWagers := 10
		wagers := make([]*domain.Wager, numWagers)
		for i := range wagers {
			wagers[i] = testDB.CreateTestWager(ctx, creator.ID, 1000, time.Now().UTC().Add(time.Hour))
		}

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(numWagers)
		for i := range numWagers {
			go func() {
				defer wg.Done()

				_, err := env.Join.Join(ctx, wagers[i].ID, user.ID, domain.SideB)
				if err == nil {
					successCount.Add(1)
					return
				}
				if !errors.Is(err, domain.ErrInsufficientBalance) {
					t.Errorf("unexpected join error: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := successCount.Load(); got != 3 {
			t.Errorf("expected exactly 3 successful joins, got %d", got)
		}
		if got := testDB.UserBalance(ctx, user.ID); got != 0 {
			t.Errorf("expected balance 0, got %d", got)
		}
	})

	t.Run("concurrent settles pay out once", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		creator := testDB.CreateTestUser(ctx, "creator", 5000)
		winner := testDB.CreateTestUser(ctx, "winner", 5000)
		loser := testDB.CreateTestUser(ctx, "loser", 5000)
		wager := testDB.CreateTestWager(ctx, creator.ID, 1000, time.Now().UTC().Add(time.Hour))

		if _, err := env.Join.Join(ctx, wager.ID, winner.ID, domain.SideA); err != nil {
			t.Fatalf("join failed: %v", err)
		}
		if _, err := env.Join.Join(ctx, wager.ID, loser.ID, domain.SideB); err != nil {
			t.Fatalf("join failed: %v", err)
		}
		if err := env.Settlement.Resolve(ctx, wager.ID, domain.SideA); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		numSettles := 10

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
		)

		wg.Add(numSettles)
		for range numSettles {
			go func() {
				defer wg.Done()

				err := env.Settlement.Settle(ctx, wager.ID)
				if err == nil {
					successCount.Add(1)
					return
				}
				if !errors.Is(err, domain.ErrWagerNotSettleable) {
					t.Errorf("unexpected settle error: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := successCount.Load(); got != 1 {
			t.Errorf("expected exactly 1 successful settle, got %d", got)
		}
		if got := testDB.UserBalance(ctx, winner.ID); got != 5900 {
			t.Errorf("expected winner balance 5900, got %d", got)
		}
	})

	t.Run("concurrent deposits with distinct references all credit", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		user := testDB.CreateTestUser(ctx, "depositor", 0)

		numDeposits := 20

		var wg sync.WaitGroup
		wg.Add(numDeposits)
		for i := range numDeposits {
			go func() {
				defer wg.Done()

				if _, err := env.Ledger.RecordDeposit(ctx, user.ID, 100, fmt.Sprintf("conc-%d", i)); err != nil {
					t.Errorf("deposit failed: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := testDB.UserBalance(ctx, user.ID); got != 2000 {
			t.Errorf("expected balance 2000, got %d", got)
		}
	})
}
