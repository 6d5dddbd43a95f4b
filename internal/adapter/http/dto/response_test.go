package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

func TestWagerFromDomain(t *testing.T) {
	winning := domain.SideA
	wager := &domain.Wager{
		ID:            "w1",
		Title:         "derby winner",
		SideALabel:    "home",
		SideBLabel:    "away",
		Amount:        5000,
		FeePercentage: decimal.RequireFromString("0.05"),
		Currency:      "NGN",
		Deadline:      time.Now().Add(time.Hour),
		Status:        domain.WagerStatusResolved,
		WinningSide:   &winning,
	}

	resp := WagerFromDomain(wager)

	if resp.Status != "resolved" {
		t.Fatalf("expected status resolved, got %s", resp.Status)
	}
	if resp.WinningSide == nil || *resp.WinningSide != "a" {
		t.Fatalf("expected winning side a, got %v", resp.WinningSide)
	}
}

func TestWagerFromDomainNoWinner(t *testing.T) {
	resp := WagerFromDomain(&domain.Wager{ID: "w1", Status: domain.WagerStatusOpen})

	if resp.WinningSide != nil {
		t.Fatalf("expected nil winning side, got %v", resp.WinningSide)
	}
}

func TestWagerDetailFromUseCase(t *testing.T) {
	detail := &usecase.WagerDetail{
		Wager:   &domain.Wager{ID: "w1"},
		Totals:  domain.SideTotals{SideA: 20000, SideB: 10000},
		Entries: 3,
	}

	resp := WagerDetailFromUseCase(detail)

	if resp.Pool != 30000 {
		t.Fatalf("expected pool 30000, got %d", resp.Pool)
	}
	if resp.SideATotal != 20000 || resp.SideBTotal != 10000 {
		t.Fatalf("expected side totals to carry over, got %+v", resp)
	}
	if resp.Entries != 3 {
		t.Fatalf("expected 3 entries, got %d", resp.Entries)
	}
}

func TestWithdrawalFromDomain(t *testing.T) {
	w := &domain.Withdrawal{
		ID:            "wd1",
		UserID:        "u1",
		Amount:        40000,
		Status:        domain.WithdrawalStatusFailed,
		Reference:     "WDR_1",
		FailureReason: "transfer rejected",
	}

	resp := WithdrawalFromDomain(w)

	if resp.Status != "failed" || resp.FailureReason != "transfer rejected" {
		t.Fatalf("expected failure fields to carry over, got %+v", resp)
	}
}
