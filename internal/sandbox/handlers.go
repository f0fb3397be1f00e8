package sandbox

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/internal/sandbox/store"
	"github.com/gatewaylabs/payconsole/pkg/gateway"
	"github.com/gatewaylabs/payconsole/pkg/token"
)

// handleToken handles POST /token. The response body is the raw token
// string, matching what the console expects.
func (s *Server) handleToken(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	acc, err := s.store.GetAccount(req.Username)
	if err != nil {
		c.JSON(401, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn().Str("username", req.Username).Msg("password verification failed")
		c.JSON(401, gin.H{"error": "invalid credentials"})
		return
	}

	tok, err := token.Generate(s.secret, acc.Username, acc.Role, acc.MerchantID, s.ttl)
	if err != nil {
		c.JSON(500, gin.H{"error": "failed to issue token"})
		return
	}

	log.Info().Str("username", acc.Username).Str("role", string(acc.Role)).Msg("login successful")
	c.String(200, tok)
}

// listMerchants handles GET /merchant with server-side sort and
// pagination.
func (s *Server) listMerchants(c *gin.Context) {
	q := parseListQuery(c)

	merchants, err := s.store.ListMerchants()
	if err != nil {
		c.JSON(500, gin.H{"error": "failed to list merchants"})
		return
	}
	sortMerchants(merchants, q.SortColumn, q.SortDirection)

	totalPages := (len(merchants) + q.PageSize - 1) / q.PageSize
	start := q.PageNumber * q.PageSize
	page := []models.Merchant{}
	if start < len(merchants) {
		end := start + q.PageSize
		if end > len(merchants) {
			end = len(merchants)
		}
		page = merchants[start:end]
	}

	c.JSON(200, gin.H{"merchants": page, "totalPages": totalPages})
}

// createMerchant handles POST /merchant.
func (s *Server) createMerchant(c *gin.Context) {
	var req gateway.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(400, gin.H{"error": "username and password are required"})
		return
	}
	if req.Status == "" {
		req.Status = models.MerchantActive
	}
	if req.Status != models.MerchantActive && req.Status != models.MerchantInactive {
		c.JSON(400, gin.H{"error": "status must be ACTIVE or INACTIVE"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(500, gin.H{"error": "failed to hash password"})
		return
	}

	m := &models.Merchant{
		Username:    req.Username,
		Email:       req.Email,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	}
	if err := s.store.CreateMerchant(m, string(hash)); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			c.JSON(409, gin.H{"error": "username already exists"})
			return
		}
		c.JSON(500, gin.H{"error": "failed to create merchant"})
		return
	}

	log.Info().Int("merchant_id", m.ID).Str("username", m.Username).Msg("merchant created")
	c.JSON(201, m)
}

// updateMerchant handles PATCH /merchant/:id. Username is immutable; a
// username in the payload is ignored.
func (s *Server) updateMerchant(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid merchant id"})
		return
	}

	var req gateway.UpdateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	m, err := s.store.GetMerchant(id)
	if err != nil {
		c.JSON(404, gin.H{"error": "merchant not found"})
		return
	}

	if req.Name != "" {
		m.Name = req.Name
	}
	if req.Email != "" {
		m.Email = req.Email
	}
	if req.Description != "" {
		m.Description = req.Description
	}
	if req.Status != "" {
		if req.Status != models.MerchantActive && req.Status != models.MerchantInactive {
			c.JSON(400, gin.H{"error": "status must be ACTIVE or INACTIVE"})
			return
		}
		m.Status = req.Status
	}

	if err := s.store.UpdateMerchant(m); err != nil {
		c.JSON(500, gin.H{"error": "failed to update merchant"})
		return
	}
	c.JSON(200, m)
}

// deleteMerchant handles DELETE /merchant/:id. A merchant with existing
// transactions cannot be deleted; that comes back as 409.
func (s *Server) deleteMerchant(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid merchant id"})
		return
	}

	switch err := s.store.DeleteMerchant(id); {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(404, gin.H{"error": "merchant not found"})
	case errors.Is(err, store.ErrMerchantHasTransactions):
		c.JSON(409, gin.H{"error": "merchant has transactions and cannot be deleted"})
	case err != nil:
		c.JSON(500, gin.H{"error": "failed to delete merchant"})
	default:
		log.Info().Int("merchant_id", id).Msg("merchant deleted")
		c.Status(204)
	}
}

// listMerchantTransactions handles GET /transaction/merchant/:id. The
// literal id "current" resolves to the caller's own merchant and is
// restricted to merchants; numeric ids are the admin view.
func (s *Server) listMerchantTransactions(c *gin.Context) {
	claims := mustClaims(c)
	idParam := c.Param("id")

	var merchantID int
	if idParam == "current" {
		if claims.Role != models.RoleMerchant {
			c.JSON(403, gin.H{"error": "forbidden"})
			return
		}
		merchantID = claims.MerchantID
	} else {
		if claims.Role != models.RoleAdmin {
			c.JSON(403, gin.H{"error": "forbidden"})
			return
		}
		id, err := strconv.Atoi(idParam)
		if err != nil {
			c.JSON(400, gin.H{"error": "invalid merchant id"})
			return
		}
		if _, err := s.store.GetMerchant(id); err != nil {
			c.JSON(404, gin.H{"error": "merchant not found"})
			return
		}
		merchantID = id
	}

	trxs, err := s.store.ListTransactionsByMerchant(merchantID)
	if err != nil {
		c.JSON(500, gin.H{"error": "failed to list transactions"})
		return
	}
	c.JSON(200, trxs)
}

// createTransaction handles POST /transaction. The merchant id always
// comes from the verified claims, never from the payload.
func (s *Server) createTransaction(c *gin.Context) {
	claims := mustClaims(c)

	var req gateway.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}
	if !req.TransactionType.Valid() {
		c.JSON(400, gin.H{"error": "transactionType must be AUTHORIZE, CHARGE, REFUND, or REVERSAL"})
		return
	}
	if req.Amount.Sign() <= 0 {
		c.JSON(400, gin.H{"error": "amount must be greater than zero"})
		return
	}

	status := models.StatusApproved
	if req.TransactionType.RequiresReference() {
		if req.ReferenceID == "" {
			c.JSON(400, gin.H{"error": "referenceId is required for REFUND and REVERSAL"})
			return
		}
		ref, err := s.store.GetTransaction(req.ReferenceID)
		if err != nil || ref.MerchantID != claims.MerchantID {
			c.JSON(422, gin.H{"error": "referenced transaction not found"})
			return
		}
		if req.TransactionType == models.TrxTypeRefund {
			status = models.StatusRefunded
		} else {
			status = models.StatusReversed
		}
		if err := s.store.UpdateTransactionStatus(ref.UUID, status); err != nil {
			c.JSON(500, gin.H{"error": "failed to update referenced transaction"})
			return
		}
	}

	t := &models.Transaction{
		UUID:            uuid.NewString(),
		TransactionType: req.TransactionType,
		ReferenceID:     req.ReferenceID,
		Status:          status,
		CreationDate:    time.Now().UTC(),
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Amount:          req.Amount,
		MerchantID:      claims.MerchantID,
	}
	if err := s.store.CreateTransaction(t); err != nil {
		c.JSON(500, gin.H{"error": "failed to create transaction"})
		return
	}

	log.Info().Str("uuid", t.UUID).Str("type", string(t.TransactionType)).Int("merchant_id", t.MerchantID).Msg("transaction created")
	c.JSON(201, t)
}

// parseListQuery reads the pagination and sort parameters with the same
// defaults the console uses.
func parseListQuery(c *gin.Context) models.ListQuery {
	q := models.DefaultListQuery()
	if v, err := strconv.Atoi(c.Query("pageNumber")); err == nil && v >= 0 {
		q.PageNumber = v
	}
	if v, err := strconv.Atoi(c.Query("pageSize")); err == nil && v > 0 {
		q.PageSize = v
	}
	if v := c.Query("sortColumn"); v != "" {
		q.SortColumn = v
	}
	if v := models.SortDirection(c.Query("sortDirection")); v == models.SortAsc || v == models.SortDesc {
		q.SortDirection = v
	}
	return q
}
