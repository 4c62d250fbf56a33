package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/application/checkout"
	"github.com/smartprint/backend/internal/application/printing"
	"github.com/smartprint/backend/internal/application/wallet"
	"github.com/smartprint/backend/internal/domain/payment"
	"github.com/smartprint/backend/internal/domain/printjob"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
	"github.com/smartprint/backend/internal/infrastructure/auth"
	"github.com/smartprint/backend/internal/infrastructure/config"
	"github.com/smartprint/backend/internal/infrastructure/dispatch"
	"github.com/smartprint/backend/internal/infrastructure/logger"
	"github.com/smartprint/backend/internal/infrastructure/persistence"
	paymentinfra "github.com/smartprint/backend/internal/infrastructure/payment"
	"github.com/smartprint/backend/internal/infrastructure/pdf"
)

// kiosk drives one checkout session from the terminal. The scanner
// shares stdin with the command loop: during dispatch the next line
// typed (or scanned by a wedge device) is the printer code.
type kiosk struct {
	session *checkout.Session
	editor  *printing.EditService

	pendingOrder *payment.Order
}

func main() {
	tokenFlag := flag.String("token", "", "bearer token identifying the account")
	flag.Parse()

	if *tokenFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: kiosk -token <bearer token>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	claims, err := auth.NewJWTService(cfg.JWT).ValidateToken(*tokenFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid token:", err)
		os.Exit(1)
	}

	k, cleanup, err := buildKiosk(cfg, log, checkout.Identity{
		UID:   claims.UID,
		Email: claims.Email,
		Name:  claims.Name,
		Token: *tokenFlag,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to assemble session:", err)
		os.Exit(1)
	}
	defer cleanup()

	k.runLoop()
}

func buildKiosk(cfg *config.Config, log *zap.Logger, id checkout.Identity) (*kiosk, func(), error) {
	pricePerPage, err := valueobject.NewMoneyINRFromString(cfg.Pricing.PricePerPage)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid price per page: %w", err)
	}
	initialBalance, err := valueobject.NewMoneyINRFromString(cfg.Pricing.InitialBalance)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid initial balance: %w", err)
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	accountRepo := persistence.NewGormAccountRepository(db.DB)
	transactionRepo := persistence.NewGormBalanceTransactionRepository(db.DB)
	ledger := wallet.NewLedgerService(accountRepo, transactionRepo, initialBalance, log)

	gateway, err := paymentinfra.NewRazorpayAdapter(&paymentinfra.RazorpayConfig{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
		Currency:  valueobject.Currency(cfg.Pricing.Currency),
		Timeout:   cfg.Razorpay.Timeout,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	topUp := wallet.NewTopUpService(gateway, ledger, transactionRepo, log)

	rasterizer := pdf.NewEmbeddedImageRasterizer()
	loader := pdf.NewExtractor(rasterizer, cfg.Pdf.PreviewScale, log)
	composer := pdf.NewComposer(cfg.Pdf.CompositionScale, log)
	editor := printing.NewEditService(loader, composer, pricePerPage, log)

	scanner := dispatch.NewLineScanner(os.Stdin)
	deliverer := dispatch.NewClient(cfg.Dispatch.DeliveryTimeout, log)

	session := checkout.NewSession(id, checkout.Deps{
		Ledger:    ledger,
		TopUp:     topUp,
		Editor:    editor,
		Deliverer: deliverer,
		Scanner:   scanner,
		Logger:    log,
	}, checkout.Config{
		PricePerPage: pricePerPage,
		ScanWait:     cfg.Dispatch.ScanWait,
		GatewayWait:  cfg.Dispatch.GatewayWait,
	})

	cleanup := func() {
		_ = scanner.Close()
		_ = db.Close()
	}
	return &kiosk{session: session, editor: editor}, cleanup, nil
}

const helpText = `commands:
  standard | legal | upload   select a service
  load <path>                 load a PDF (upload service)
  toggle <page>               toggle a page selection
  all | none                  select or clear every page
  copies <n>                  set copy count
  cost                        show the live cost
  pages <n>                   set page count (standard/legal)
  proceed                     compose and show the confirmation
  topup <rupees>              start a wallet top-up
  paid <payment_id> <sig>     complete the pending top-up
  back                        abandon the pending top-up
  confirm                     debit the wallet
  dispatch                    scan the printer code and send the job
  cancel                      cancel the current job
  status                      show session state
  quit`

func (k *kiosk) runLoop() {
	fmt.Println("SmartPrint kiosk ready. Type 'help' for commands.")
	input := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Printf("[%s]> ", k.session.State())
		if !input.Scan() {
			return
		}
		fields := strings.Fields(input.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			fmt.Println(helpText)
		case "quit", "exit":
			return
		case "standard":
			report(k.session.SelectService(ctx, printjob.ServiceKindStandard))
		case "legal":
			report(k.session.SelectService(ctx, printjob.ServiceKindLegal))
		case "upload":
			report(k.session.SelectService(ctx, printjob.ServiceKindUpload))
		case "load":
			k.loadDocument(ctx, args)
		case "toggle":
			withInt(args, func(n int) { report(k.withEdit(func(es *printing.EditSession) error { return k.editor.Toggle(es, n) })) })
		case "all":
			report(k.withEdit(func(es *printing.EditSession) error { k.editor.SelectAll(es); return nil }))
		case "none":
			report(k.withEdit(func(es *printing.EditSession) error { k.editor.Clear(es); return nil }))
		case "copies":
			withInt(args, func(n int) { report(k.withEdit(func(es *printing.EditSession) error { k.editor.SetCopies(es, n); return nil })) })
		case "cost":
			k.showCost()
		case "pages":
			withInt(args, func(n int) { report(k.session.SetPageCount(n)) })
		case "proceed":
			snapshot, err := k.session.Proceed(ctx)
			if err != nil {
				report(err)
				continue
			}
			printConfirmation(snapshot)
		case "topup":
			k.startTopUp(ctx, args)
		case "paid":
			k.completeTopUp(ctx, args)
		case "back":
			snapshot, err := k.session.AbandonTopUp(ctx)
			if err != nil {
				report(err)
				continue
			}
			k.pendingOrder = nil
			printConfirmation(snapshot)
		case "confirm":
			snapshot, err := k.session.Confirm(ctx)
			if err != nil {
				report(err)
				if errors.Is(err, shared.ErrInsufficientBalance) {
					printConfirmation(snapshot)
				}
				continue
			}
			fmt.Println("debited; scan the printer code to dispatch")
		case "dispatch":
			ack, err := k.session.Dispatch(ctx)
			if err != nil {
				report(err)
				continue
			}
			fmt.Println("printer acknowledged:", ack)
		case "cancel":
			report(k.session.Cancel())
			k.pendingOrder = nil
		case "status":
			fmt.Println("state:", k.session.State())
		default:
			fmt.Println("unknown command; type 'help'")
		}
	}
}

// withEdit runs fn against the live edit session, if any.
func (k *kiosk) withEdit(fn func(*printing.EditSession) error) error {
	es := k.session.Edit()
	if es == nil {
		return shared.ErrInvalidState
	}
	return fn(es)
}

func (k *kiosk) showCost() {
	err := k.withEdit(func(es *printing.EditSession) error {
		cost, err := k.editor.LiveCost(es)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", cost.StringFixed(), k.editor.Describe(es))
		return nil
	})
	report(err)
}

func (k *kiosk) loadDocument(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: load <path>")
		return
	}
	f, err := os.Open(args[0])
	if err != nil {
		report(err)
		return
	}
	defer f.Close()

	es, err := k.session.LoadDocument(ctx, f, f.Name())
	if err != nil {
		report(err)
		return
	}
	fmt.Printf("loaded %s (%d pages)\n", f.Name(), es.PageCount())
}

func (k *kiosk) startTopUp(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: topup <rupees>")
		return
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Println("amount must be a number")
		return
	}
	order, err := k.session.StartTopUp(ctx, valueobject.NewMoneyINRFromFloat(amount))
	if err != nil {
		report(err)
		return
	}
	k.pendingOrder = order
	fmt.Printf("order %s created for %d paise; complete payment, then run: paid <payment_id> <signature>\n",
		order.OrderID, order.Amount)
}

func (k *kiosk) completeTopUp(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: paid <payment_id> <signature>")
		return
	}
	if k.pendingOrder == nil {
		fmt.Println("no top-up in progress")
		return
	}
	snapshot, err := k.session.CompleteTopUp(ctx,
		valueobject.NewMoneyINRFromPaise(k.pendingOrder.Amount),
		payment.Verification{
			OrderID:   k.pendingOrder.OrderID,
			PaymentID: args[0],
			Signature: args[1],
		})
	if err != nil {
		report(err)
		return
	}
	k.pendingOrder = nil
	printConfirmation(snapshot)
}

func withInt(args []string, fn func(int)) {
	if len(args) != 1 {
		fmt.Println("expected one numeric argument")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("argument must be an integer")
		return
	}
	fn(n)
}

func printConfirmation(snapshot printjob.ConfirmationContext) {
	fmt.Printf("balance %s | cost %s | after %s",
		snapshot.Balance.StringFixed(),
		snapshot.Cost.StringFixed(),
		snapshot.ProjectedBalance.StringFixed())
	if snapshot.Shortfall.IsPositive() {
		fmt.Printf(" | short by %s", snapshot.Shortfall.StringFixed())
	}
	fmt.Println()
}

func report(err error) {
	if err != nil {
		fmt.Println("error:", err)
	}
}
