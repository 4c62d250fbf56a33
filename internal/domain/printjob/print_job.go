package printjob

import (
	"time"

	"github.com/smartprint/backend/internal/domain/document"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// PrintJob represents one print job from service selection to dispatch.
// It is created when a service kind is picked, mutated as the selection
// or page count changes, and discarded on cancel or successful dispatch.
type PrintJob struct {
	shared.BaseAggregateRoot
	AccountUID    string
	Kind          ServiceKind
	State         CheckoutState
	BillablePages int
	Cost          valueobject.Money `gorm:"type:numeric"`
	FileName      string
	ErrorMessage  string
	DispatchedAt  *time.Time

	// Artifact holds the composed output document (or the raw upload if
	// the user skipped editing). Held client-side only, never persisted.
	Artifact *document.ComposedArtifact `gorm:"-" json:"-"`
}

// NewPrintJob creates a new print job for the given account and service kind
func NewPrintJob(accountUID string, kind ServiceKind) (*PrintJob, error) {
	if accountUID == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account UID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_SERVICE_KIND", "Unknown service kind: "+kind.String())
	}

	job := &PrintJob{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountUID:        accountUID,
		Kind:              kind,
		State:             StateServiceSelected,
		Cost:              valueobject.ZeroINR(),
	}

	job.AddDomainEvent(NewPrintJobCreatedEvent(job))

	return job, nil
}

// SetArtifact attaches the document payload and re-prices the job.
// The artifact's page count becomes the billable page count.
func (j *PrintJob) SetArtifact(artifact *document.ComposedArtifact, pricePerPage valueobject.Money) error {
	if artifact == nil {
		return shared.NewDomainError("INVALID_INPUT", "Artifact cannot be nil")
	}
	cost, err := Quote(artifact.TotalPages, pricePerPage)
	if err != nil {
		return err
	}
	j.Artifact = artifact
	j.FileName = artifact.Name
	j.BillablePages = artifact.TotalPages
	j.Cost = cost
	j.UpdatedAt = time.Now()
	return nil
}

// SetPageCount sets the user-entered page count for pre-approved document
// kinds and re-prices the job.
func (j *PrintJob) SetPageCount(pages int, pricePerPage valueobject.Money) error {
	if j.Kind.IsUpload() {
		return shared.NewDomainError("INVALID_STATE", "Page count applies only to pre-approved documents")
	}
	if pages < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Please enter a positive page count")
	}
	cost, err := Quote(pages, pricePerPage)
	if err != nil {
		return err
	}
	j.BillablePages = pages
	j.Cost = cost
	j.UpdatedAt = time.Now()
	return nil
}

// HasPayload reports whether the job carries what its service kind needs:
// a file for uploads, a positive page count otherwise.
func (j *PrintJob) HasPayload() bool {
	if j.Kind.IsUpload() {
		return j.Artifact != nil && len(j.Artifact.Data) > 0
	}
	return j.BillablePages > 0
}

// transition moves the job to the target state after a guard check
func (j *PrintJob) transition(target CheckoutState) error {
	if !j.State.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot transition from "+j.State.String()+" to "+target.String())
	}
	old := j.State
	j.State = target
	j.UpdatedAt = time.Now()
	j.IncrementVersion()
	j.AddDomainEvent(NewPrintJobStateChangedEvent(j, old, target))
	return nil
}

// BeginConfirmation moves the job into the confirmation step. The job
// must carry a payload for its service kind.
func (j *PrintJob) BeginConfirmation() error {
	if !j.HasPayload() {
		if j.Kind.IsUpload() {
			return shared.NewDomainError("INVALID_INPUT", "Please select a file to upload")
		}
		return shared.NewDomainError("INVALID_INPUT", "Please enter page count")
	}
	return j.transition(StateAwaitingConfirmation)
}

// BeginTopUp enters the payment sub-flow from confirmation
func (j *PrintJob) BeginTopUp() error {
	return j.transition(StateAwaitingPayment)
}

// FinishTopUp returns to confirmation once the payment sub-flow completes
func (j *PrintJob) FinishTopUp() error {
	return j.transition(StateAwaitingConfirmation)
}

// BeginDebit enters the debiting step
func (j *PrintJob) BeginDebit() error {
	return j.transition(StateDebiting)
}

// DebitSucceeded moves on to waiting for a dispatch target
func (j *PrintJob) DebitSucceeded() error {
	return j.transition(StateAwaitingDispatchTarget)
}

// DebitFailed re-opens confirmation after a failed debit (the balance
// changed concurrently); the caller refreshes the confirmation numbers.
func (j *PrintJob) DebitFailed() error {
	return j.transition(StateAwaitingConfirmation)
}

// BeginDispatch enters the dispatching step
func (j *PrintJob) BeginDispatch() error {
	return j.transition(StateDispatching)
}

// Complete marks the job as successfully dispatched
func (j *PrintJob) Complete() error {
	if err := j.transition(StateSucceeded); err != nil {
		return err
	}
	now := time.Now()
	j.DispatchedAt = &now
	j.AddDomainEvent(NewPrintJobDispatchedEvent(j))
	return nil
}

// Fail marks the job as failed. The debit is not reversed: a job that
// fails after debiting stays paid for.
func (j *PrintJob) Fail(message string) error {
	if err := j.transition(StateFailed); err != nil {
		return err
	}
	j.ErrorMessage = message
	j.AddDomainEvent(NewPrintJobFailedEvent(j))
	return nil
}

// Cancel discards the job context. Not allowed while debiting or dispatching.
func (j *PrintJob) Cancel() error {
	if !j.State.CanCancel() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot cancel from status: "+j.State.String())
	}
	old := j.State
	j.State = StateIdle
	j.Artifact = nil
	j.FileName = ""
	j.BillablePages = 0
	j.Cost = valueobject.ZeroINR()
	j.UpdatedAt = time.Now()
	j.IncrementVersion()
	j.AddDomainEvent(NewPrintJobStateChangedEvent(j, old, StateIdle))
	return nil
}

// IsTerminal returns true if the job is in a terminal state
func (j *PrintJob) IsTerminal() bool {
	return j.State.IsTerminal()
}
