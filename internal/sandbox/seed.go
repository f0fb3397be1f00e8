package sandbox

import (
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/internal/sandbox/store"
)

// Seed ensures the admin account exists and, outside production, a few
// demo merchants to browse. Safe to run on every startup.
func Seed(st *store.Store, env string) error {
	if _, err := st.GetAccount("admin"); errors.Is(err, store.ErrNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		acc := &store.Account{
			Username:     "admin",
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
		}
		if err := st.PutAccount(acc); err != nil {
			return err
		}
		log.Info().Msg("seeded admin account")
	} else if err != nil {
		return err
	}

	if env == "production" {
		return nil
	}

	demos := []models.Merchant{
		{Username: "coffee-corner", Email: "owner@coffeecorner.example", Name: "Coffee Corner", Description: "Espresso bar", Status: models.MerchantActive},
		{Username: "book-nook", Email: "shop@booknook.example", Name: "Book Nook", Description: "Second-hand books", Status: models.MerchantActive},
		{Username: "vinyl-vault", Email: "hello@vinylvault.example", Name: "Vinyl Vault", Description: "Record store", Status: models.MerchantInactive},
	}
	for i := range demos {
		if _, err := st.GetAccount(demos[i].Username); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte("merchant123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := st.CreateMerchant(&demos[i], string(hash)); err != nil {
			return err
		}
		log.Info().Str("username", demos[i].Username).Msg("seeded demo merchant")
	}
	return nil
}
