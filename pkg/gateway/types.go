package gateway

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gatewaylabs/payconsole/internal/models"
)

// RequestError is returned for any non-2xx backend response. 401/403 from
// protected calls pass through unmodified; reacting to session expiry is
// the caller's job.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// IsConflict reports a 409-class response, e.g. deleting a merchant that
// still has transactions.
func (e *RequestError) IsConflict() bool {
	return e.StatusCode == 409
}

// MerchantPage is the wire shape of GET /merchant.
type MerchantPage struct {
	Merchants  []models.Merchant `json:"merchants"`
	TotalPages int               `json:"totalPages"`
}

// CreateMerchantRequest is the POST /merchant payload.
type CreateMerchantRequest struct {
	Username    string                `json:"username"`
	Password    string                `json:"password"`
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Description string                `json:"description"`
	Status      models.MerchantStatus `json:"status"`
}

// UpdateMerchantRequest is the PATCH /merchant/{id} payload: the creation
// fields minus the password. Username is carried on the wire but the
// backend treats it as immutable after creation.
type UpdateMerchantRequest struct {
	Username    string                `json:"username"`
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	Description string                `json:"description"`
	Status      models.MerchantStatus `json:"status"`
}

// CreateTransactionRequest is the POST /transaction payload.
type CreateTransactionRequest struct {
	TransactionType models.TransactionType `json:"transactionType"`
	ReferenceID     string                 `json:"referenceId,omitempty"`
	CustomerEmail   string                 `json:"customerEmail"`
	CustomerPhone   string                 `json:"customerPhone"`
	Amount          decimal.Decimal        `json:"amount"`
	MerchantID      int                    `json:"merchantId"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
