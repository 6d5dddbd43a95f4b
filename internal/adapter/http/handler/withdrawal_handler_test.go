package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ovik/wagerd/internal/adapter/http/dto"
	"github.com/ovik/wagerd/internal/domain"
)

type withdrawalServiceStub struct {
	requestFn func(ctx context.Context, userID string, amount int64, account domain.BankAccount) (*domain.Withdrawal, error)
	getFn     func(ctx context.Context, id string) (*domain.Withdrawal, error)
}

func (s *withdrawalServiceStub) RequestWithdrawal(ctx context.Context, userID string, amount int64, account domain.BankAccount) (*domain.Withdrawal, error) {
	return s.requestFn(ctx, userID, amount, account)
}

func (s *withdrawalServiceStub) GetWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error) {
	return s.getFn(ctx, id)
}

func TestWithdrawalHandler_Create_Success(t *testing.T) {
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		requestFn: func(ctx context.Context, userID string, amount int64, account domain.BankAccount) (*domain.Withdrawal, error) {
			if userID != "u1" || amount != 40000 || account.BankCode != "058" {
				t.Fatalf("unexpected request args: %s %d %+v", userID, amount, account)
			}
			return &domain.Withdrawal{
				ID:        "wd1",
				UserID:    userID,
				Amount:    amount,
				Status:    domain.WithdrawalStatusProcessing,
				Reference: "WDR_1",
			}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateWithdrawalRequest{
		UserID: "u1",
		Amount: 40000,
		BankAccount: dto.BankAccountRequest{
			AccountNumber: "0001112223",
			BankCode:      "058",
			AccountName:   "Ada",
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.WithdrawalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "processing" || resp.Reference != "WDR_1" {
		t.Fatalf("expected processing withdrawal, got %+v", resp)
	}
}

func TestWithdrawalHandler_Create_LimitExceeded(t *testing.T) {
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		requestFn: func(ctx context.Context, userID string, amount int64, account domain.BankAccount) (*domain.Withdrawal, error) {
			return nil, domain.ErrWithdrawalLimitExceeded
		},
	})

	body, _ := json.Marshal(dto.CreateWithdrawalRequest{
		UserID: "u1",
		Amount: 900000000,
		BankAccount: dto.BankAccountRequest{
			AccountNumber: "0001112223",
			BankCode:      "058",
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_Create_MissingBankAccount(t *testing.T) {
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		requestFn: func(ctx context.Context, userID string, amount int64, account domain.BankAccount) (*domain.Withdrawal, error) {
			t.Fatal("RequestWithdrawal should not be called for invalid payload")
			return nil, nil
		},
	})

	body, _ := json.Marshal(dto.CreateWithdrawalRequest{UserID: "u1", Amount: 40000})
	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWithdrawalHandler_Get_NotFound(t *testing.T) {
	handler := NewWithdrawalHandler(&withdrawalServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Withdrawal, error) {
			return nil, domain.ErrWithdrawalNotFound
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/withdrawals/wd1", nil), "id", "wd1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
