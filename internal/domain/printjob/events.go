package printjob

import (
	"github.com/smartprint/backend/internal/domain/shared"
)

const aggregateTypePrintJob = "PrintJob"

// Event types for the print job aggregate
const (
	EventTypePrintJobCreated      = "printjob.created"
	EventTypePrintJobStateChanged = "printjob.state_changed"
	EventTypePrintJobDispatched   = "printjob.dispatched"
	EventTypePrintJobFailed       = "printjob.failed"
)

// PrintJobCreatedEvent is raised when a new print job is created
type PrintJobCreatedEvent struct {
	shared.BaseDomainEvent
	AccountUID string      `json:"account_uid"`
	Kind       ServiceKind `json:"kind"`
}

// NewPrintJobCreatedEvent creates a new PrintJobCreatedEvent
func NewPrintJobCreatedEvent(job *PrintJob) *PrintJobCreatedEvent {
	return &PrintJobCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrintJobCreated, job.ID, aggregateTypePrintJob),
		AccountUID:      job.AccountUID,
		Kind:            job.Kind,
	}
}

// PrintJobStateChangedEvent is raised on every checkout state transition
type PrintJobStateChangedEvent struct {
	shared.BaseDomainEvent
	OldState CheckoutState `json:"old_state"`
	NewState CheckoutState `json:"new_state"`
}

// NewPrintJobStateChangedEvent creates a new PrintJobStateChangedEvent
func NewPrintJobStateChangedEvent(job *PrintJob, from, to CheckoutState) *PrintJobStateChangedEvent {
	return &PrintJobStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrintJobStateChanged, job.ID, aggregateTypePrintJob),
		OldState:        from,
		NewState:        to,
	}
}

// PrintJobDispatchedEvent is raised when the job is delivered to a printer
type PrintJobDispatchedEvent struct {
	shared.BaseDomainEvent
	AccountUID    string `json:"account_uid"`
	BillablePages int    `json:"billable_pages"`
}

// NewPrintJobDispatchedEvent creates a new PrintJobDispatchedEvent
func NewPrintJobDispatchedEvent(job *PrintJob) *PrintJobDispatchedEvent {
	return &PrintJobDispatchedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrintJobDispatched, job.ID, aggregateTypePrintJob),
		AccountUID:      job.AccountUID,
		BillablePages:   job.BillablePages,
	}
}

// PrintJobFailedEvent is raised when the job fails
type PrintJobFailedEvent struct {
	shared.BaseDomainEvent
	AccountUID   string `json:"account_uid"`
	ErrorMessage string `json:"error_message"`
}

// NewPrintJobFailedEvent creates a new PrintJobFailedEvent
func NewPrintJobFailedEvent(job *PrintJob) *PrintJobFailedEvent {
	return &PrintJobFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrintJobFailed, job.ID, aggregateTypePrintJob),
		AccountUID:      job.AccountUID,
		ErrorMessage:    job.ErrorMessage,
	}
}
