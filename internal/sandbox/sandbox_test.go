package sandbox_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/internal/sandbox"
	"github.com/gatewaylabs/payconsole/internal/sandbox/store"
	"github.com/gatewaylabs/payconsole/pkg/gateway"
	"github.com/gatewaylabs/payconsole/pkg/token"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type fixture struct {
	st  *store.Store
	url string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sandbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	// Production mode seeds the admin account only, no demo merchants.
	require.NoError(t, sandbox.Seed(st, "production"))

	srv := httptest.NewServer(sandbox.New(st, []byte("test-secret"), time.Hour).Router("test"))
	t.Cleanup(srv.Close)

	return &fixture{st: st, url: srv.URL}
}

// seedMerchants inserts n merchants directly into the store. All share the
// password "pw"; bcrypt runs at MinCost to keep the suite fast.
func (f *fixture) seedMerchants(t *testing.T, n int) []*models.Merchant {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	merchants := make([]*models.Merchant, 0, n)
	for i := 0; i < n; i++ {
		m := &models.Merchant{
			Username: fmt.Sprintf("shop-%02d", i),
			Email:    fmt.Sprintf("shop-%02d@example.com", i),
			Name:     fmt.Sprintf("Shop %02d", i),
			Status:   models.MerchantActive,
		}
		require.NoError(t, f.st.CreateMerchant(m, string(hash)))
		merchants = append(merchants, m)
	}
	return merchants
}

// login exchanges credentials for a client carrying the issued token.
func (f *fixture) login(t *testing.T, username, password string) *gateway.Client {
	t.Helper()
	anon := gateway.NewClient(f.url, gateway.StaticToken(""), time.Second)
	tok, err := anon.Authenticate(context.Background(), username, password)
	require.NoError(t, err)
	return gateway.NewClient(f.url, gateway.StaticToken(tok), time.Second)
}

func TestLoginIssuesDecodableToken(t *testing.T) {
	f := newFixture(t)

	anon := gateway.NewClient(f.url, gateway.StaticToken(""), time.Second)
	tok, err := anon.Authenticate(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	// The console derives the role from the token without the secret.
	role, err := token.DecodeRole(tok)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)

	anon := gateway.NewClient(f.url, gateway.StaticToken(""), time.Second)
	_, err := anon.Authenticate(context.Background(), "admin", "wrong")

	var reqErr *gateway.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
}

func TestMerchantListPaginationAndSort(t *testing.T) {
	f := newFixture(t)
	f.seedMerchants(t, 25)
	admin := f.login(t, "admin", "admin123")

	res, err := admin.ListMerchants(context.Background(), models.ListQuery{
		PageNumber: 0, PageSize: 10, SortColumn: "name", SortDirection: models.SortDesc,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Items, 10)
	assert.Equal(t, "Shop 24", res.Items[0].Name)

	// The last page holds the remainder.
	res, err = admin.ListMerchants(context.Background(), models.ListQuery{
		PageNumber: 2, PageSize: 10, SortColumn: "name", SortDirection: models.SortDesc,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 5)
	assert.Equal(t, "Shop 00", res.Items[4].Name)
}

func TestMerchantRoleCannotReachAdminRoutes(t *testing.T) {
	f := newFixture(t)
	f.seedMerchants(t, 1)
	merchant := f.login(t, "shop-00", "pw")

	_, err := merchant.ListMerchants(context.Background(), models.DefaultListQuery())

	var reqErr *gateway.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.StatusCode)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	f := newFixture(t)

	anon := gateway.NewClient(f.url, gateway.StaticToken(""), time.Second)
	_, err := anon.ListMerchants(context.Background(), models.DefaultListQuery())

	var reqErr *gateway.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
}

func TestDeleteMerchantWithTransactionsConflicts(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedMerchants(t, 1)
	admin := f.login(t, "admin", "admin123")
	merchant := f.login(t, "shop-00", "pw")

	_, err := merchant.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		TransactionType: models.TrxTypeCharge,
		Amount:          decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	err = admin.DeleteMerchant(context.Background(), seeded[0].ID)
	var reqErr *gateway.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.True(t, reqErr.IsConflict())

	// The refused delete left the merchant in place.
	res, err := admin.ListMerchants(context.Background(), models.DefaultListQuery())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "shop-00", res.Items[0].Username)
}

func TestChargeUpdatesTransactionSum(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedMerchants(t, 1)
	admin := f.login(t, "admin", "admin123")
	merchant := f.login(t, "shop-00", "pw")

	_, err := merchant.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		TransactionType: models.TrxTypeCharge,
		CustomerEmail:   "buyer@example.com",
		Amount:          decimal.RequireFromString("19.99"),
	})
	require.NoError(t, err)

	res, err := admin.ListMerchants(context.Background(), models.DefaultListQuery())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].TotalTransactionSum.Equal(decimal.RequireFromString("19.99")))

	// The admin's per-merchant view shows the transaction too.
	trxs, err := admin.ListMerchantTransactions(context.Background(), seeded[0].ID)
	require.NoError(t, err)
	require.Len(t, trxs, 1)
	assert.Equal(t, models.StatusApproved, trxs[0].Status)
}

func TestRefundFlow(t *testing.T) {
	f := newFixture(t)
	f.seedMerchants(t, 1)
	merchant := f.login(t, "shop-00", "pw")

	charge, err := merchant.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		TransactionType: models.TrxTypeCharge,
		Amount:          decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	refund, err := merchant.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		TransactionType: models.TrxTypeRefund,
		ReferenceID:     charge.UUID,
		Amount:          decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefunded, refund.Status)

	// The referenced charge flips to REFUNDED as well.
	trxs, err := merchant.ListOwnTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, trxs, 2)
	for _, trx := range trxs {
		assert.Equal(t, models.StatusRefunded, trx.Status)
	}
}

func TestRefundOfUnknownTransactionRejected(t *testing.T) {
	f := newFixture(t)
	f.seedMerchants(t, 1)
	merchant := f.login(t, "shop-00", "pw")

	_, err := merchant.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		TransactionType: models.TrxTypeRefund,
		ReferenceID:     "no-such-uuid",
		Amount:          decimal.NewFromInt(50),
	})

	var reqErr *gateway.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.StatusCode)
}

func TestRefundCannotReferenceAnotherMerchantsCharge(t *testing.T) {
	f := newFixture(t)
	f.seedMerchants(t, 2)
	first := f.login(t, "shop-00", "pw")
	second := f.login(t, "shop-01", "pw")

	charge, err := first.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		TransactionType: models.TrxTypeCharge,
		Amount:          decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	_, err = second.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		TransactionType: models.TrxTypeRefund,
		ReferenceID:     charge.UUID,
		Amount:          decimal.NewFromInt(50),
	})

	var reqErr *gateway.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.StatusCode)
}

func TestAdminCannotSubmitTransactions(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin", "admin123")

	_, err := admin.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		TransactionType: models.TrxTypeCharge,
		Amount:          decimal.NewFromInt(10),
	})

	var reqErr *gateway.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.StatusCode)
}

func TestUpdateMerchantIgnoresUsername(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedMerchants(t, 1)
	admin := f.login(t, "admin", "admin123")

	updated, err := admin.UpdateMerchant(context.Background(), seeded[0].ID, gateway.UpdateMerchantRequest{
		Username: "renamed",
		Name:     "New Name",
		Status:   models.MerchantInactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "shop-00", updated.Username)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, models.MerchantInactive, updated.Status)
}
