// Package workflow implements the short-lived mutation commands: one
// round trip through the gateway, then a refresh signal to the owning
// list controller on success. Failures are returned for local display;
// nothing is retried and no optimistic change is applied.
package workflow

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gatewaylabs/payconsole/internal/apperrors"
	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/pkg/gateway"
)

// Refresher is the owning list controller's refresh hook.
type Refresher interface {
	Refresh()
}

// MerchantWorkflow handles create, update, and delete of merchants.
type MerchantWorkflow struct {
	gw   *gateway.Client
	list Refresher
}

// NewMerchantWorkflow wires the workflow to the gateway and the merchant
// listing it should refresh after successful mutations.
func NewMerchantWorkflow(gw *gateway.Client, list Refresher) *MerchantWorkflow {
	return &MerchantWorkflow{gw: gw, list: list}
}

// Create registers a new merchant and refreshes the listing on success.
func (w *MerchantWorkflow) Create(ctx context.Context, req gateway.CreateMerchantRequest) (*models.Merchant, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, apperrors.NewValidation("username", "required")
	}
	if req.Password == "" {
		return nil, apperrors.NewValidation("password", "required")
	}
	if req.Status == "" {
		req.Status = models.MerchantActive
	}
	m, err := w.gw.CreateMerchant(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("username", req.Username).Msg("merchant create failed")
		return nil, err
	}
	log.Info().Int("merchant_id", m.ID).Msg("merchant created")
	w.list.Refresh()
	return m, nil
}

// Update patches a merchant's mutable fields and refreshes the listing on
// success.
func (w *MerchantWorkflow) Update(ctx context.Context, id int, req gateway.UpdateMerchantRequest) (*models.Merchant, error) {
	if req.Status != "" && req.Status != models.MerchantActive && req.Status != models.MerchantInactive {
		return nil, apperrors.NewValidation("status", "must be ACTIVE or INACTIVE")
	}
	m, err := w.gw.UpdateMerchant(ctx, id, req)
	if err != nil {
		log.Warn().Err(err).Int("merchant_id", id).Msg("merchant update failed")
		return nil, err
	}
	w.list.Refresh()
	return m, nil
}

// Delete removes a merchant and refreshes the listing on success. A
// merchant with existing transactions cannot be deleted; the backend's
// 409-class error comes back as a displayable condition, not a crash.
func (w *MerchantWorkflow) Delete(ctx context.Context, id int) error {
	if err := w.gw.DeleteMerchant(ctx, id); err != nil {
		log.Warn().Err(err).Int("merchant_id", id).Msg("merchant delete refused")
		return err
	}
	log.Info().Int("merchant_id", id).Msg("merchant deleted")
	w.list.Refresh()
	return nil
}
