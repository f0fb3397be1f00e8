package workflow

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gatewaylabs/payconsole/internal/apperrors"
	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/pkg/gateway"
)

// TransactionWorkflow handles transaction submission for the merchant
// screen.
type TransactionWorkflow struct {
	gw   *gateway.Client
	list Refresher
}

// NewTransactionWorkflow wires the workflow to the gateway and the
// transaction listing it should refresh after successful submissions.
func NewTransactionWorkflow(gw *gateway.Client, list Refresher) *TransactionWorkflow {
	return &TransactionWorkflow{gw: gw, list: list}
}

// ValidateTransaction runs the client-side checks that must block a
// submission before any request goes out.
func ValidateTransaction(req gateway.CreateTransactionRequest) error {
	if !req.TransactionType.Valid() {
		return apperrors.NewValidation("transactionType", "must be AUTHORIZE, CHARGE, REFUND, or REVERSAL")
	}
	if req.TransactionType.RequiresReference() && strings.TrimSpace(req.ReferenceID) == "" {
		return apperrors.NewValidation("referenceId", "required for REFUND and REVERSAL")
	}
	if req.Amount.Sign() <= 0 {
		return apperrors.NewValidation("amount", "must be greater than zero")
	}
	return nil
}

// Create submits a transaction and refreshes the listing on success.
// Validation failures never reach the network.
func (w *TransactionWorkflow) Create(ctx context.Context, req gateway.CreateTransactionRequest) (*models.Transaction, error) {
	if err := ValidateTransaction(req); err != nil {
		return nil, err
	}
	t, err := w.gw.CreateTransaction(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("type", string(req.TransactionType)).Msg("transaction create failed")
		return nil, err
	}
	log.Info().Str("uuid", t.UUID).Str("type", string(t.TransactionType)).Msg("transaction created")
	w.list.Refresh()
	return t, nil
}
