package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartprint/backend/internal/domain/printjob"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// PrintJobModel is the persistence model for print job history
type PrintJobModel struct {
	AggregateModel
	AccountUID    string          `gorm:"type:varchar(128);not null;index"`
	Kind          string          `gorm:"type:varchar(30);not null"`
	State         string          `gorm:"type:varchar(30);not null"`
	BillablePages int             `gorm:"not null;default:0"`
	Cost          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	FileName      string          `gorm:"type:varchar(255)"`
	ErrorMessage  string          `gorm:"type:text"`
	DispatchedAt  *time.Time
}

// TableName returns the table name for GORM
func (PrintJobModel) TableName() string {
	return "print_jobs"
}

// ToDomain converts the persistence model to a domain PrintJob. The
// composed artifact is never persisted and is absent on loaded jobs.
func (m *PrintJobModel) ToDomain() *printjob.PrintJob {
	return &printjob.PrintJob{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		AccountUID:        m.AccountUID,
		Kind:              printjob.ServiceKind(m.Kind),
		State:             printjob.CheckoutState(m.State),
		BillablePages:     m.BillablePages,
		Cost:              valueobject.NewMoneyINR(m.Cost),
		FileName:          m.FileName,
		ErrorMessage:      m.ErrorMessage,
		DispatchedAt:      m.DispatchedAt,
	}
}

// PrintJobModelFromDomain converts a domain PrintJob to the persistence model
func PrintJobModelFromDomain(j *printjob.PrintJob) *PrintJobModel {
	m := &PrintJobModel{
		AccountUID:    j.AccountUID,
		Kind:          j.Kind.String(),
		State:         j.State.String(),
		BillablePages: j.BillablePages,
		Cost:          j.Cost.Amount(),
		FileName:      j.FileName,
		ErrorMessage:  j.ErrorMessage,
		DispatchedAt:  j.DispatchedAt,
	}
	m.FromDomainAggregateRoot(j.BaseAggregateRoot)
	return m
}
