package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/application/printing"
	"github.com/smartprint/backend/internal/application/wallet"
	"github.com/smartprint/backend/internal/domain/document"
	"github.com/smartprint/backend/internal/domain/payment"
	"github.com/smartprint/backend/internal/domain/printjob"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
	"github.com/smartprint/backend/internal/infrastructure/dispatch"
)

// Default waits for the interactive steps. Both are configurable; the
// zero value falls back to these.
const (
	DefaultScanWait    = 2 * time.Minute
	DefaultGatewayWait = 90 * time.Second
)

// Deliverer delivers a confirmed job to a resolved dispatch target
type Deliverer interface {
	DeliverUpload(ctx context.Context, target dispatch.Target, artifact *document.ComposedArtifact, meta dispatch.JobMetadata) (string, error)
	DeliverPageCount(ctx context.Context, target dispatch.Target, kind printjob.ServiceKind, pageCount int, meta dispatch.JobMetadata) (string, error)
}

// Identity is the authenticated user driving the session
type Identity struct {
	UID   string
	Email string
	Name  string
	Token string
}

// Deps bundles the collaborators a session needs
type Deps struct {
	Ledger    *wallet.LedgerService
	TopUp     *wallet.TopUpService
	Editor    *printing.EditService
	Deliverer Deliverer
	Scanner   dispatch.Scanner
	Logger    *zap.Logger
}

// Config carries the session tunables
type Config struct {
	PricePerPage valueobject.Money
	ScanWait     time.Duration
	GatewayWait  time.Duration
}

// Session drives one user's checkout from service selection to dispatch.
// All operations are serialized on an internal mutex: the state machine
// performs one transition at a time, and a second caller blocks until
// the first completes.
type Session struct {
	mu sync.Mutex

	identity Identity
	deps     Deps
	cfg      Config
	logger   *zap.Logger

	job  *printjob.PrintJob
	edit *printing.EditSession

	// cancelWait interrupts an in-flight scan wait when the session is
	// cancelled from another goroutine.
	cancelWait context.CancelFunc
}

// NewSession creates a checkout session for the given identity
func NewSession(identity Identity, deps Deps, cfg Config) *Session {
	if cfg.ScanWait <= 0 {
		cfg.ScanWait = DefaultScanWait
	}
	if cfg.GatewayWait <= 0 {
		cfg.GatewayWait = DefaultGatewayWait
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		identity: identity,
		deps:     deps,
		cfg:      cfg,
		logger:   logger,
	}
}

// State returns the current checkout state
func (s *Session) State() printjob.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return printjob.StateIdle
	}
	return s.job.State
}

// Job returns a snapshot of the current print job, nil when idle
func (s *Session) Job() *printjob.PrintJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// SelectService starts a checkout for the given service kind. The
// account is created with its initial grant on first contact. Selecting
// a service while one is already selected restarts with the new kind.
func (s *Session) SelectService(ctx context.Context, kind printjob.ServiceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil && !s.job.State.CanCancel() {
		return shared.NewDomainError("INVALID_STATE", "Cannot switch service from status: "+s.job.State.String())
	}

	if _, err := s.deps.Ledger.EnsureAccount(ctx, s.identity.UID, s.identity.Email, s.identity.Name); err != nil {
		return fmt.Errorf("failed to prepare account: %w", err)
	}

	s.closeEditLocked()
	job, err := printjob.NewPrintJob(s.identity.UID, kind)
	if err != nil {
		return err
	}
	s.job = job
	s.logger.Info("service selected",
		zap.String("uid", s.identity.UID),
		zap.String("kind", kind.String()),
	)
	return nil
}

// LoadDocument loads an uploaded PDF into the editing step. Only valid
// for the upload service kind; loading again replaces the previous
// document and resets the selection.
func (s *Session) LoadDocument(ctx context.Context, r io.Reader, name string) (*printing.EditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(printjob.StateServiceSelected); err != nil {
		return nil, err
	}
	if !s.job.Kind.IsUpload() {
		return nil, shared.NewDomainError("INVALID_STATE", "Document editing applies only to uploads")
	}

	es, err := s.deps.Editor.Open(ctx, r, name, s.edit)
	if err != nil {
		s.edit = nil
		return nil, err
	}
	s.edit = es
	return es, nil
}

// Edit returns the current editing session, nil when no document is loaded
func (s *Session) Edit() *printing.EditSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit
}

// SetPageCount records the user-entered page count for pre-approved
// document kinds and prices the job.
func (s *Session) SetPageCount(pages int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(printjob.StateServiceSelected); err != nil {
		return err
	}
	return s.job.SetPageCount(pages, s.cfg.PricePerPage)
}

// Proceed moves from editing or page-count entry to confirmation. For
// uploads the selection is composed here; the resulting artifact's page
// count is what gets billed. Returns the confirmation snapshot built
// from a fresh balance read.
func (s *Session) Proceed(ctx context.Context) (printjob.ConfirmationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(printjob.StateServiceSelected); err != nil {
		return printjob.ConfirmationContext{}, err
	}

	if s.job.Kind.IsUpload() {
		if s.edit == nil {
			return printjob.ConfirmationContext{}, shared.NewDomainError("INVALID_INPUT", "Please select a file to upload")
		}
		artifact, err := s.deps.Editor.Apply(ctx, s.edit)
		if err != nil {
			return printjob.ConfirmationContext{}, err
		}
		if err := s.job.SetArtifact(artifact, s.cfg.PricePerPage); err != nil {
			return printjob.ConfirmationContext{}, err
		}
	}

	if err := s.job.BeginConfirmation(); err != nil {
		return printjob.ConfirmationContext{}, err
	}
	return s.confirmationLocked(ctx)
}

// Confirmation rebuilds the confirmation snapshot from a fresh balance
// read. Stale snapshots are never reused; after a top-up this is how the
// numbers refresh.
func (s *Session) Confirmation(ctx context.Context) (printjob.ConfirmationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(printjob.StateAwaitingConfirmation); err != nil {
		return printjob.ConfirmationContext{}, err
	}
	return s.confirmationLocked(ctx)
}

// StartTopUp enters the payment sub-flow and creates a gateway order
// for the chosen amount.
func (s *Session) StartTopUp(ctx context.Context, amount valueobject.Money) (*payment.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(printjob.StateAwaitingConfirmation); err != nil {
		return nil, err
	}
	if err := s.job.BeginTopUp(); err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayWait)
	defer cancel()
	order, err := s.deps.TopUp.CreateOrder(gctx, amount)
	if err != nil {
		// the payment sub-flow never started, fall back to confirmation
		_ = s.job.FinishTopUp()
		return nil, err
	}
	return order, nil
}

// CompleteTopUp verifies the gateway proof, credits the wallet and
// returns to confirmation with refreshed numbers. A failed verification
// keeps the session in the payment step with no balance effect.
func (s *Session) CompleteTopUp(ctx context.Context, amount valueobject.Money, proof payment.Verification) (printjob.ConfirmationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(printjob.StateAwaitingPayment); err != nil {
		return printjob.ConfirmationContext{}, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayWait)
	defer cancel()
	if err := s.deps.TopUp.Verify(gctx, s.identity.UID, amount, proof); err != nil {
		return printjob.ConfirmationContext{}, err
	}

	if err := s.job.FinishTopUp(); err != nil {
		return printjob.ConfirmationContext{}, err
	}
	return s.confirmationLocked(ctx)
}

// AbandonTopUp leaves the payment sub-flow without paying and returns
// to confirmation.
func (s *Session) AbandonTopUp(ctx context.Context) (printjob.ConfirmationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(printjob.StateAwaitingPayment); err != nil {
		return printjob.ConfirmationContext{}, err
	}
	if err := s.job.FinishTopUp(); err != nil {
		return printjob.ConfirmationContext{}, err
	}
	return s.confirmationLocked(ctx)
}

// Confirm attempts the debit. On success the session waits for a
// dispatch target. An insufficient balance at commit time re-opens
// confirmation and the returned snapshot carries the refreshed numbers
// alongside the error.
func (s *Session) Confirm(ctx context.Context) (printjob.ConfirmationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStateLocked(printjob.StateAwaitingConfirmation); err != nil {
		return printjob.ConfirmationContext{}, err
	}

	snapshot, err := s.confirmationLocked(ctx)
	if err != nil {
		return printjob.ConfirmationContext{}, err
	}
	if !snapshot.CanConfirm() {
		return snapshot, shared.ErrInsufficientBalance
	}

	if err := s.job.BeginDebit(); err != nil {
		return snapshot, err
	}

	_, err = s.deps.Ledger.Debit(ctx, s.identity.UID, s.job.Cost, wallet.SourceTypePrintJob, s.job.ID.String())
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientBalance) {
			// the balance moved under us, re-open confirmation with a
			// fresh read
			if terr := s.job.DebitFailed(); terr != nil {
				return printjob.ConfirmationContext{}, terr
			}
			refreshed, rerr := s.confirmationLocked(ctx)
			if rerr != nil {
				return printjob.ConfirmationContext{}, rerr
			}
			return refreshed, err
		}
		_ = s.job.DebitFailed()
		return printjob.ConfirmationContext{}, fmt.Errorf("debit failed: %w", err)
	}

	if err := s.job.DebitSucceeded(); err != nil {
		return snapshot, err
	}
	s.logger.Info("job paid, awaiting dispatch target",
		zap.String("uid", s.identity.UID),
		zap.String("cost", s.job.Cost.StringFixed()),
	)
	return snapshot, nil
}

// Dispatch waits for a scanned dispatch target and delivers the job.
// The scan wait is bounded and cancellable; invalid scan payloads keep
// the wait going. Delivery failure is terminal and the debit stands.
func (s *Session) Dispatch(ctx context.Context) (string, error) {
	s.mu.Lock()
	if err := s.requireStateLocked(printjob.StateAwaitingDispatchTarget); err != nil {
		s.mu.Unlock()
		return "", err
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.cfg.ScanWait)
	s.cancelWait = cancel
	scanner := s.deps.Scanner
	s.mu.Unlock()

	// The scan wait runs unlocked so Cancel stays reachable; the state
	// guard above keeps a second Dispatch out until this one resolves.
	target, err := dispatch.AwaitTarget(scanCtx, scanner)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelWait = nil

	if s.job == nil || s.job.State != printjob.StateAwaitingDispatchTarget {
		return "", shared.NewDomainError("INVALID_STATE", "Checkout was cancelled during the scan wait")
	}
	if err != nil {
		return "", fmt.Errorf("scan wait ended: %w", err)
	}

	if err := s.job.BeginDispatch(); err != nil {
		return "", err
	}

	meta := dispatch.JobMetadata{
		Token:     s.identity.Token,
		UID:       s.identity.UID,
		UserEmail: s.identity.Email,
	}

	var ack string
	if s.job.Kind.IsUpload() {
		ack, err = s.deps.Deliverer.DeliverUpload(ctx, target, s.job.Artifact, meta)
	} else {
		ack, err = s.deps.Deliverer.DeliverPageCount(ctx, target, s.job.Kind, s.job.BillablePages, meta)
	}
	if err != nil {
		// the debit is not compensated
		_ = s.job.Fail(err.Error())
		s.discardJobLocked()
		s.logger.Warn("dispatch failed, debit stands",
			zap.String("uid", s.identity.UID),
			zap.Error(err),
		)
		return "", err
	}

	if err := s.job.Complete(); err != nil {
		return "", err
	}
	s.discardJobLocked()
	s.logger.Info("job dispatched",
		zap.String("uid", s.identity.UID),
		zap.String("target", target.String()),
		zap.String("ack", ack),
	)
	return ack, nil
}

// Cancel abandons the checkout and returns the session to idle. Not
// allowed while a debit or dispatch is in flight. An in-progress scan
// wait is interrupted.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return nil
	}
	if !s.job.State.CanCancel() {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel from status: "+s.job.State.String())
	}
	if s.cancelWait != nil {
		s.cancelWait()
		s.cancelWait = nil
	}
	if err := s.job.Cancel(); err != nil {
		return err
	}
	s.closeEditLocked()
	s.job = nil
	s.logger.Info("checkout cancelled", zap.String("uid", s.identity.UID))
	return nil
}

// confirmationLocked builds a confirmation snapshot from a fresh balance
// read. Callers hold the mutex.
func (s *Session) confirmationLocked(ctx context.Context) (printjob.ConfirmationContext, error) {
	balance, err := s.deps.Ledger.Balance(ctx, s.identity.UID)
	if err != nil {
		return printjob.ConfirmationContext{}, fmt.Errorf("failed to read balance: %w", err)
	}
	return printjob.NewConfirmationContext(balance, s.job.Cost)
}

// requireStateLocked guards an operation on the current state
func (s *Session) requireStateLocked(want printjob.CheckoutState) error {
	if s.job == nil {
		if want == printjob.StateIdle {
			return nil
		}
		return shared.NewDomainError("INVALID_STATE", "No service selected")
	}
	if s.job.State != want {
		return shared.NewDomainError("INVALID_STATE",
			"Operation requires status "+want.String()+", current is "+s.job.State.String())
	}
	return nil
}

// closeEditLocked releases the editing session if one is open
func (s *Session) closeEditLocked() {
	if s.edit != nil {
		_ = s.edit.Close()
		s.edit = nil
	}
}

// discardJobLocked drops a terminal job and returns the session to
// idle. The job record is done either way; the next checkout starts
// fresh. Callers hold the mutex.
func (s *Session) discardJobLocked() {
	s.closeEditLocked()
	s.job = nil
}
