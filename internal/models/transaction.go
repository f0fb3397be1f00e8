package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string
type TransactionStatus string

const (
	TrxTypeAuthorize TransactionType = "AUTHORIZE"
	TrxTypeCharge    TransactionType = "CHARGE"
	TrxTypeRefund    TransactionType = "REFUND"
	TrxTypeReversal  TransactionType = "REVERSAL"
)

const (
	StatusApproved TransactionStatus = "APPROVED"
	StatusReversed TransactionStatus = "REVERSED"
	StatusRefunded TransactionStatus = "REFUNDED"
	StatusError    TransactionStatus = "ERROR"
)

// RequiresReference reports whether the transaction type must reference a
// prior transaction's uuid. REFUND and REVERSAL do, AUTHORIZE and CHARGE
// do not.
func (t TransactionType) RequiresReference() bool {
	return t == TrxTypeRefund || t == TrxTypeReversal
}

// Valid reports whether the type is one of the four supported values.
func (t TransactionType) Valid() bool {
	switch t {
	case TrxTypeAuthorize, TrxTypeCharge, TrxTypeRefund, TrxTypeReversal:
		return true
	}
	return false
}

// Transaction is immutable once created; status transitions happen
// server-side only.
type Transaction struct {
	UUID            string            `json:"uuid"`
	TransactionType TransactionType   `json:"transactionType"`
	ReferenceID     string            `json:"referenceId,omitempty"`
	Status          TransactionStatus `json:"status"`
	CreationDate    time.Time         `json:"creationDate"`
	CustomerEmail   string            `json:"customerEmail"`
	CustomerPhone   string            `json:"customerPhone"`
	Amount          decimal.Decimal   `json:"amount"`
	MerchantID      int               `json:"merchantId"`
}
