package printjob

// ServiceKind represents the kind of print service selected by the user
type ServiceKind string

const (
	// ServiceKindUpload is a user-uploaded PDF document
	ServiceKindUpload ServiceKind = "UPLOAD"
	// ServiceKindStandard is the pre-approved standard document, billed by page count
	ServiceKindStandard ServiceKind = "STANDARD_DOCUMENT"
	// ServiceKindLegal is the pre-approved legal document, billed by page count
	ServiceKindLegal ServiceKind = "LEGAL_DOCUMENT"
)

// IsValid checks if the ServiceKind is a valid value
func (k ServiceKind) IsValid() bool {
	switch k {
	case ServiceKindUpload, ServiceKindStandard, ServiceKindLegal:
		return true
	}
	return false
}

// String returns the string representation of ServiceKind
func (k ServiceKind) String() string {
	return string(k)
}

// IsUpload returns true for the upload service kind
func (k ServiceKind) IsUpload() bool {
	return k == ServiceKindUpload
}

// DispatchName returns the wire name used in the printer dispatch path
// (POST {target}/print_{name}) for pre-approved document kinds.
func (k ServiceKind) DispatchName() string {
	switch k {
	case ServiceKindStandard:
		return "printFile1"
	case ServiceKindLegal:
		return "printFile2"
	default:
		return ""
	}
}

// AllServiceKinds returns all valid ServiceKind values
func AllServiceKinds() []ServiceKind {
	return []ServiceKind{ServiceKindUpload, ServiceKindStandard, ServiceKindLegal}
}

// CheckoutState represents the state of a print job in the checkout flow
type CheckoutState string

const (
	StateIdle                   CheckoutState = "IDLE"
	StateServiceSelected        CheckoutState = "SERVICE_SELECTED"
	StateAwaitingConfirmation   CheckoutState = "AWAITING_CONFIRMATION"
	StateAwaitingPayment        CheckoutState = "AWAITING_PAYMENT"
	StateDebiting               CheckoutState = "DEBITING"
	StateAwaitingDispatchTarget CheckoutState = "AWAITING_DISPATCH_TARGET"
	StateDispatching            CheckoutState = "DISPATCHING"
	StateSucceeded              CheckoutState = "SUCCEEDED"
	StateFailed                 CheckoutState = "FAILED"
)

// IsValid checks if the CheckoutState is a valid value
func (s CheckoutState) IsValid() bool {
	switch s {
	case StateIdle, StateServiceSelected, StateAwaitingConfirmation,
		StateAwaitingPayment, StateDebiting, StateAwaitingDispatchTarget,
		StateDispatching, StateSucceeded, StateFailed:
		return true
	}
	return false
}

// String returns the string representation of CheckoutState
func (s CheckoutState) String() string {
	return string(s)
}

// IsTerminal returns true if the state is terminal
func (s CheckoutState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// CanCancel returns true if the job may be cancelled from this state.
// Debiting and dispatching must run to completion.
func (s CheckoutState) CanCancel() bool {
	return s != StateDebiting && s != StateDispatching && !s.IsTerminal()
}

// CanTransitionTo checks if a transition to the target state is allowed
func (s CheckoutState) CanTransitionTo(target CheckoutState) bool {
	if target == StateIdle {
		return s.CanCancel()
	}

	switch s {
	case StateIdle:
		return target == StateServiceSelected
	case StateServiceSelected:
		return target == StateServiceSelected || target == StateAwaitingConfirmation
	case StateAwaitingConfirmation:
		return target == StateAwaitingPayment || target == StateDebiting
	case StateAwaitingPayment:
		return target == StateAwaitingConfirmation
	case StateDebiting:
		// success moves forward, an insufficient-balance failure re-opens
		// confirmation with refreshed numbers
		return target == StateAwaitingDispatchTarget || target == StateAwaitingConfirmation
	case StateAwaitingDispatchTarget:
		return target == StateDispatching
	case StateDispatching:
		return target == StateSucceeded || target == StateFailed
	default:
		return false
	}
}
