package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gatewaylabs/payconsole/internal/config"
	"github.com/gatewaylabs/payconsole/internal/guard"
	"github.com/gatewaylabs/payconsole/internal/listctrl"
	"github.com/gatewaylabs/payconsole/internal/models"
	"github.com/gatewaylabs/payconsole/internal/session"
	"github.com/gatewaylabs/payconsole/internal/workflow"
	"github.com/gatewaylabs/payconsole/pkg/gateway"
)

const usage = `payconsole - payment backend admin console

Usage:
  payconsole login -u <username> -p <password>
  payconsole logout
  payconsole whoami
  payconsole merchants [list|create|update|delete|tx] [flags]   (ADMIN)
  payconsole tx [list|create] [flags]                           (MERCHANT)

Run a subcommand with -h for its flags.`

// app bundles the wiring every command needs.
type app struct {
	store *session.Store
	gw    *gateway.Client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg.Env)

	if err := os.MkdirAll(filepath.Dir(cfg.Console.SessionDBPath), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare session directory: %v\n", err)
		os.Exit(1)
	}
	store, err := session.Open(cfg.Console.SessionDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open session store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	a := &app{
		store: store,
		gw:    gateway.NewClient(cfg.Console.APIBaseURL, store, cfg.Console.HTTPTimeout),
	}

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	switch args[0] {
	case "login":
		a.login(ctx, args[1:])
	case "logout":
		a.logout()
	case "whoami":
		a.whoami()
	case "merchants":
		a.merchants(ctx, args[1:])
	case "tx":
		a.transactions(ctx, args[1:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func (a *app) login(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	fs.Parse(args)
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "login requires -u and -p")
		os.Exit(2)
	}

	tok, err := a.gw.Authenticate(ctx, *username, *password)
	if err != nil {
		// A failed login never touches an existing session.
		fmt.Fprintln(os.Stderr, "invalid username or password")
		os.Exit(1)
	}
	if err := a.store.Set(tok); err != nil {
		fmt.Fprintf(os.Stderr, "backend returned an unusable token: %v\n", err)
		os.Exit(1)
	}

	cred, _ := a.store.Get()
	fmt.Printf("logged in as %s (%s)\n", *username, cred.Role)
	switch cred.Role {
	case models.RoleAdmin:
		fmt.Println("next: payconsole merchants")
	case models.RoleMerchant:
		fmt.Println("next: payconsole tx")
	}
}

func (a *app) logout() {
	if err := a.store.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to clear session: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("logged out")
}

func (a *app) whoami() {
	cred, ok := a.store.Get()
	if !ok {
		fmt.Println("no active session")
		return
	}
	fmt.Printf("role: %s\n", cred.Role)
}

// guardScreen mirrors the web console's route guard: no session sends the
// user to login, a role mismatch to the unauthorized screen. Either way no
// fetch has been issued yet.
func (a *app) guardScreen(roles ...models.Role) {
	switch guard.Authorize(a.store, roles...) {
	case guard.RedirectLogin:
		fmt.Fprintln(os.Stderr, "no active session: run `payconsole login` first")
		os.Exit(1)
	case guard.RedirectUnauthorized:
		fmt.Fprintln(os.Stderr, "unauthorized: your role does not permit this screen")
		os.Exit(1)
	}
}

func (a *app) merchants(ctx context.Context, args []string) {
	a.guardScreen(models.RoleAdmin)

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "list":
		fs := flag.NewFlagSet("merchants list", flag.ExitOnError)
		page := fs.Int("page", 0, "zero-based page number")
		pageSize := fs.Int("page-size", 10, "rows per page")
		sortCol := fs.String("sort", "id", "sort column")
		desc := fs.Bool("desc", false, "sort descending")
		fs.Parse(args)

		q := models.ListQuery{PageNumber: *page, PageSize: *pageSize, SortColumn: *sortCol, SortDirection: models.SortAsc}
		if *desc {
			q.SortDirection = models.SortDesc
		}
		ctrl := listctrl.New(a.gw.ListMerchants, q)
		defer ctrl.Close()
		snap := awaitIdle(ctrl, ctrl.Load)
		exitOnFetchError(snap.Status, snap.Err)
		renderMerchants(snap)

	case "create":
		fs := flag.NewFlagSet("merchants create", flag.ExitOnError)
		var req gateway.CreateMerchantRequest
		fs.StringVar(&req.Username, "username", "", "login username (required)")
		fs.StringVar(&req.Password, "password", "", "login password (required)")
		fs.StringVar(&req.Name, "name", "", "display name")
		fs.StringVar(&req.Email, "email", "", "contact email")
		fs.StringVar(&req.Description, "description", "", "description")
		status := fs.String("status", "ACTIVE", "ACTIVE or INACTIVE")
		fs.Parse(args)
		req.Status = models.MerchantStatus(*status)

		ctrl := listctrl.New(a.gw.ListMerchants, models.DefaultListQuery())
		defer ctrl.Close()
		wf := workflow.NewMerchantWorkflow(a.gw, ctrl)
		snap := awaitMutation(ctrl, func() error {
			_, err := wf.Create(ctx, req)
			return err
		})
		renderMerchants(snap)

	case "update":
		fs := flag.NewFlagSet("merchants update", flag.ExitOnError)
		id := fs.Int("id", 0, "merchant id (required)")
		var req gateway.UpdateMerchantRequest
		fs.StringVar(&req.Name, "name", "", "display name")
		fs.StringVar(&req.Email, "email", "", "contact email")
		fs.StringVar(&req.Description, "description", "", "description")
		status := fs.String("status", "", "ACTIVE or INACTIVE")
		fs.Parse(args)
		req.Status = models.MerchantStatus(*status)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "merchants update requires -id")
			os.Exit(2)
		}

		ctrl := listctrl.New(a.gw.ListMerchants, models.DefaultListQuery())
		defer ctrl.Close()
		wf := workflow.NewMerchantWorkflow(a.gw, ctrl)
		snap := awaitMutation(ctrl, func() error {
			_, err := wf.Update(ctx, *id, req)
			return err
		})
		renderMerchants(snap)

	case "delete":
		fs := flag.NewFlagSet("merchants delete", flag.ExitOnError)
		id := fs.Int("id", 0, "merchant id (required)")
		fs.Parse(args)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "merchants delete requires -id")
			os.Exit(2)
		}

		ctrl := listctrl.New(a.gw.ListMerchants, models.DefaultListQuery())
		defer ctrl.Close()
		wf := workflow.NewMerchantWorkflow(a.gw, ctrl)
		snap := awaitMutation(ctrl, func() error {
			return wf.Delete(ctx, *id)
		})
		renderMerchants(snap)

	case "tx":
		fs := flag.NewFlagSet("merchants tx", flag.ExitOnError)
		id := fs.Int("id", 0, "merchant id (required)")
		fs.Parse(args)
		if *id <= 0 {
			fmt.Fprintln(os.Stderr, "merchants tx requires -id")
			os.Exit(2)
		}

		ctrl := listctrl.New(transactionFetcher(func(ctx context.Context) ([]models.Transaction, error) {
			return a.gw.ListMerchantTransactions(ctx, *id)
		}), models.DefaultListQuery())
		defer ctrl.Close()
		snap := awaitIdle(ctrl, ctrl.Load)
		exitOnFetchError(snap.Status, snap.Err)
		renderTransactions(snap.Items)

	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func (a *app) transactions(ctx context.Context, args []string) {
	a.guardScreen(models.RoleMerchant)

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
		args = args[1:]
	}

	ctrl := listctrl.New(transactionFetcher(a.gw.ListOwnTransactions), models.DefaultListQuery())
	defer ctrl.Close()

	switch sub {
	case "list":
		snap := awaitIdle(ctrl, ctrl.Load)
		exitOnFetchError(snap.Status, snap.Err)
		renderTransactions(snap.Items)

	case "create":
		fs := flag.NewFlagSet("tx create", flag.ExitOnError)
		trxType := fs.String("type", "AUTHORIZE", "AUTHORIZE, CHARGE, REFUND, or REVERSAL")
		reference := fs.String("reference", "", "uuid of a prior transaction (required for REFUND/REVERSAL)")
		email := fs.String("email", "", "customer email")
		phone := fs.String("phone", "", "customer phone")
		amount := fs.String("amount", "", "amount (required)")
		fs.Parse(args)

		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			fmt.Fprintln(os.Stderr, "amount must be a decimal number")
			os.Exit(2)
		}
		req := gateway.CreateTransactionRequest{
			TransactionType: models.TransactionType(*trxType),
			ReferenceID:     *reference,
			CustomerEmail:   *email,
			CustomerPhone:   *phone,
			Amount:          amt,
		}

		wf := workflow.NewTransactionWorkflow(a.gw, ctrl)
		snap := awaitMutation(ctrl, func() error {
			_, err := wf.Create(ctx, req)
			return err
		})
		renderTransactions(snap.Items)

	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

// transactionFetcher adapts the unpaginated transaction endpoints to the
// list controller: the whole result is one page.
func transactionFetcher(fetch func(ctx context.Context) ([]models.Transaction, error)) listctrl.Fetcher[models.Transaction] {
	return func(ctx context.Context, _ models.ListQuery) (models.ListResult[models.Transaction], error) {
		trxs, err := fetch(ctx)
		if err != nil {
			return models.ListResult[models.Transaction]{}, err
		}
		return models.ListResult[models.Transaction]{Items: trxs, TotalPages: 1}, nil
	}
}

// awaitIdle triggers a load and blocks until the controller settles out of
// LOADING.
func awaitIdle[T any](ctrl *listctrl.Controller[T], load func()) listctrl.Snapshot[T] {
	done := make(chan struct{}, 1)
	ctrl.OnChange(func() {
		if s := ctrl.Snapshot(); s.Status != listctrl.Loading {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	load()
	<-done
	return ctrl.Snapshot()
}

// awaitMutation runs a workflow command and, on success, waits for the
// refresh it triggered. Failures exit with the error displayed near the
// triggering command.
func awaitMutation[T any](ctrl *listctrl.Controller[T], mutate func() error) listctrl.Snapshot[T] {
	done := make(chan struct{}, 1)
	ctrl.OnChange(func() {
		if s := ctrl.Snapshot(); s.Status != listctrl.Loading {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	if err := mutate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	<-done
	snap := ctrl.Snapshot()
	exitOnFetchError(snap.Status, snap.Err)
	return snap
}

func exitOnFetchError(status listctrl.Status, err error) {
	if status == listctrl.Error {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}
}

func renderMerchants(snap listctrl.Snapshot[models.Merchant]) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tNAME\tSTATUS\tTOTAL")
	for _, m := range snap.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Username, m.Email, m.Name, m.Status, m.TotalTransactionSum.StringFixed(2))
	}
	w.Flush()
	fmt.Printf("page %d of %d (sorted by %s %s)\n", snap.Query.PageNumber+1, snap.TotalPages, snap.Query.SortColumn, snap.Query.SortDirection)
}

func renderTransactions(trxs []models.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UUID\tTYPE\tSTATUS\tDATE\tCUSTOMER EMAIL\tPHONE\tAMOUNT")
	for _, t := range trxs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.UUID, t.TransactionType, t.Status, t.CreationDate.Local().Format("2006-01-02 15:04"),
			t.CustomerEmail, t.CustomerPhone, t.Amount.StringFixed(2))
	}
	w.Flush()
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
