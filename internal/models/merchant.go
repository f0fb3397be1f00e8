package models

import "github.com/shopspring/decimal"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleMerchant Role = "MERCHANT"
)

type MerchantStatus string

const (
	MerchantActive   MerchantStatus = "ACTIVE"
	MerchantInactive MerchantStatus = "INACTIVE"
)

// Merchant is a backend-owned merchant account. The console only ever holds
// a transient copy fetched for the current list page; there is no local
// persistence of merchant data.
type Merchant struct {
	ID                  int             `json:"id"`
	Username            string          `json:"username"`
	Email               string          `json:"email"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Status              MerchantStatus  `json:"status"`
	TotalTransactionSum decimal.Decimal `json:"totalTransactionSum"`
}
