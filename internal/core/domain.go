package core

import (
	"errors"
	"strings"
)

// Strategy selects the order in which debts receive the discretionary
// pool. The wire names are stable API values.
const (
	StrategyAvalanche Strategy = "avalanche" // highest APR first
	StrategySnowball  Strategy = "snowball"  // lowest balance first
	StrategyEntered   Strategy = "entered"   // by position, as entered
	StrategyCustom    Strategy = "custom"    // by per-debt priority
)

type (
	Strategy string

	Debt struct {
		ID             int64   `json:"id"`
		Creditor       string  `json:"creditor"`
		Balance        Money   `json:"balance"`
		APR            float64 `json:"apr"`
		MinimumPayment Money   `json:"minimumPayment"`
		CustomPriority *int    `json:"customPriority"`
		Position       int     `json:"position"`
	}

	Settings struct {
		BalanceDate   Date     `json:"balanceDate"`
		MonthlyBudget Money    `json:"monthlyBudget"`
		Strategy      Strategy `json:"strategy"`
	}

	// ScheduleOverride adds extra funds to one month's discretionary
	// pool. Months without an override default to zero.
	ScheduleOverride struct {
		MonthIndex       int   `json:"monthIndex"`
		AdditionalAmount Money `json:"additionalAmount"`
	}

	// PaymentOverride pins one debt's payment in one month, replacing
	// whatever the engine would have paid by default.
	PaymentOverride struct {
		MonthIndex int    `json:"monthIndex"`
		DebtID     int64  `json:"debtId"`
		Amount     Money  `json:"amount"`
		Note       string `json:"note,omitempty"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidStrategy = errors.New("invalid strategy")

	ErrEmptyCreditor   = errors.New("creditor is required")
	ErrInvalidBalance  = errors.New("balance must be greater than zero")
	ErrNegativeAPR     = errors.New("apr cannot be negative")
	ErrInvalidMinimum  = errors.New("minimum payment must be greater than zero")
	ErrNegativeBudget  = errors.New("monthly budget cannot be negative")
	ErrInvalidMonth    = errors.New("month index must be at least 1")
	ErrNegativeExtra   = errors.New("additional amount cannot be negative")
	ErrInvalidPriority = errors.New("custom priority must be a positive integer")
	ErrNoteTooLong     = errors.New("note too long (max 255 characters)")
)

func (s Strategy) IsValid() bool {
	switch s {
	case StrategyAvalanche, StrategySnowball, StrategyEntered, StrategyCustom:
		return true
	}
	return false
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Creditor) == "" {
		return ErrEmptyCreditor
	}
	if d.Balance.Cents <= 0 {
		return ErrInvalidBalance
	}
	if d.APR < 0 {
		return ErrNegativeAPR
	}
	if d.MinimumPayment.Cents <= 0 {
		return ErrInvalidMinimum
	}
	if d.CustomPriority != nil && *d.CustomPriority < 1 {
		return ErrInvalidPriority
	}
	return nil
}

func (s Settings) Validate() error {
	if err := s.BalanceDate.Validate(); err != nil {
		return err
	}
	if s.MonthlyBudget.IsNegative() {
		return ErrNegativeBudget
	}
	if !s.Strategy.IsValid() {
		return ErrInvalidStrategy
	}
	return nil
}

func (o ScheduleOverride) Validate() error {
	if o.MonthIndex < 1 {
		return ErrInvalidMonth
	}
	if o.AdditionalAmount.IsNegative() {
		return ErrNegativeExtra
	}
	return nil
}

func (p PaymentOverride) Validate() error {
	if p.MonthIndex < 1 {
		return ErrInvalidMonth
	}
	if p.DebtID <= 0 {
		return errors.New("debt id is required")
	}
	if p.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if len(p.Note) > 255 {
		return ErrNoteTooLong
	}
	return nil
}
