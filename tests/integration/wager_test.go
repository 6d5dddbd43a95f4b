package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ovik/wagerd/internal/adapter/http/dto"
	"github.com/ovik/wagerd/tests/testutil"
)

func TestWagerLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	testDB.TruncateAll(ctx)

	env := newTestEnv(t, testDB, "http://127.0.0.1:0")

	t.Run("create join resolve settle", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		creator := testDB.CreateTestUser(ctx, "creator", 5000)
		winner := testDB.CreateTestUser(ctx, "winner", 5000)
		loser := testDB.CreateTestUser(ctx, "loser", 5000)

		req := dto.CreateWagerRequest{
			Title:      "derby",
			SideALabel: "home",
			SideBLabel: "away",
			Amount:     1000,
			Deadline:   time.Now().UTC().Add(time.Hour),
			CreatorID:  creator.ID,
		}
		body, _ := json.Marshal(req)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/wagers", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, r)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}

		var wager dto.WagerResponse
		if err := json.Unmarshal(w.Body.Bytes(), &wager); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if wager.Status != "open" {
			t.Errorf("expected status open, got %s", wager.Status)
		}

		joinWager(t, env, wager.ID, winner.ID, "a", http.StatusCreated)
		joinWager(t, env, wager.ID, loser.ID, "b", http.StatusCreated)

		if got := testDB.UserBalance(ctx, winner.ID); got != 4000 {
			t.Errorf("expected winner balance 4000 after stake, got %d", got)
		}

		resolveBody, _ := json.Marshal(dto.ResolveWagerRequest{WinningSide: "a"})
		r = httptest.NewRequest(http.MethodPost, "/api/v1/wagers/"+wager.ID+"/resolve", bytes.NewReader(resolveBody))
		w = httptest.NewRecorder()
		env.Router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("resolve failed: %d %s", w.Code, w.Body.String())
		}

		r = httptest.NewRequest(http.MethodPost, "/api/v1/wagers/"+wager.ID+"/settle", nil)
		w = httptest.NewRecorder()
		env.Router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("settle failed: %d %s", w.Code, w.Body.String())
		}

		// Pool 2000, fee 100, the sole winner takes 1900.
		if got := testDB.UserBalance(ctx, winner.ID); got != 5900 {
			t.Errorf("expected winner balance 5900, got %d", got)
		}
		if got := testDB.UserBalance(ctx, loser.ID); got != 4000 {
			t.Errorf("expected loser balance 4000, got %d", got)
		}

		// Settling again is a conflict, not a second payout.
		r = httptest.NewRequest(http.MethodPost, "/api/v1/wagers/"+wager.ID+"/settle", nil)
		w = httptest.NewRecorder()
		env.Router.ServeHTTP(w, r)
		if w.Code != http.StatusConflict {
			t.Errorf("expected conflict on repeated settle, got %d", w.Code)
		}
		if got := testDB.UserBalance(ctx, winner.ID); got != 5900 {
			t.Errorf("balance changed on repeated settle: %d", got)
		}
	})

	t.Run("join is rejected twice and without funds", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		creator := testDB.CreateTestUser(ctx, "creator", 5000)
		poor := testDB.CreateTestUser(ctx, "poor", 100)
		wager := testDB.CreateTestWager(ctx, creator.ID, 1000, time.Now().UTC().Add(time.Hour))

		joinWager(t, env, wager.ID, creator.ID, "a", http.StatusCreated)
		joinWager(t, env, wager.ID, creator.ID, "b", http.StatusConflict)
		joinWager(t, env, wager.ID, poor.ID, "b", http.StatusUnprocessableEntity)

		if got := testDB.UserBalance(ctx, poor.ID); got != 100 {
			t.Errorf("failed join must not debit, balance %d", got)
		}
	})

	t.Run("join after deadline is rejected", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		creator := testDB.CreateTestUser(ctx, "creator", 5000)
		wager := testDB.CreateTestWager(ctx, creator.ID, 1000, time.Now().UTC().Add(-time.Minute))

		joinWager(t, env, wager.ID, creator.ID, "a", http.StatusConflict)
	})

	t.Run("refund returns exact stakes", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		creator := testDB.CreateTestUser(ctx, "creator", 5000)
		other := testDB.CreateTestUser(ctx, "other", 5000)
		wager := testDB.CreateTestWager(ctx, creator.ID, 1500, time.Now().UTC().Add(time.Hour))

		joinWager(t, env, wager.ID, creator.ID, "a", http.StatusCreated)
		joinWager(t, env, wager.ID, other.ID, "b", http.StatusCreated)

		r := httptest.NewRequest(http.MethodPost, "/api/v1/wagers/"+wager.ID+"/refund", nil)
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("refund failed: %d %s", w.Code, w.Body.String())
		}

		if got := testDB.UserBalance(ctx, creator.ID); got != 5000 {
			t.Errorf("expected creator balance restored to 5000, got %d", got)
		}
		if got := testDB.UserBalance(ctx, other.ID); got != 5000 {
			t.Errorf("expected other balance restored to 5000, got %d", got)
		}
	})

	t.Run("one sided wager settles as refund", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		creator := testDB.CreateTestUser(ctx, "creator", 5000)
		wager := testDB.CreateTestWager(ctx, creator.ID, 1000, time.Now().UTC().Add(time.Hour))

		joinWager(t, env, wager.ID, creator.ID, "a", http.StatusCreated)

		if err := env.Settlement.Resolve(ctx, wager.ID, "b"); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if err := env.Settlement.Settle(ctx, wager.ID); err != nil {
			t.Fatalf("settle failed: %v", err)
		}

		// Nobody staked the winning side, so the stake comes back whole.
		if got := testDB.UserBalance(ctx, creator.ID); got != 5000 {
			t.Errorf("expected full refund to 5000, got %d", got)
		}
	})
}

func joinWager(t *testing.T, env *testEnv, wagerID, userID, side string, wantStatus int) {
	t.Helper()

	body, _ := json.Marshal(dto.JoinWagerRequest{UserID: userID, Side: side})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/wagers/"+wagerID+"/join", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, r)

	if w.Code != wantStatus {
		t.Fatalf("join: expected status %d, got %d: %s", wantStatus, w.Code, w.Body.String())
	}
}
