package api

import (
	"context"

	"github.com/example/ride-agent/internal/transport"
)

type Wallet struct {
	t *transport.Client
}

func NewWallet(t *transport.Client) *Wallet { return &Wallet{t: t} }

type WalletBalance struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency,omitempty"`
}

func (w *Wallet) Balance(ctx context.Context) (*WalletBalance, error) {
	var out WalletBalance
	if err := w.t.Get(ctx, "/api/wallet/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopUp charges through the wallet backend; the payment processor itself is
// the backend's concern, not the client's.
func (w *Wallet) TopUp(ctx context.Context, amount float64) (*WalletBalance, error) {
	var out WalletBalance
	body := map[string]float64{"amount": amount}
	if err := w.t.Post(ctx, "/api/wallet/topup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
