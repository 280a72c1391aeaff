package models

import (
	"time"

	"github.com/google/uuid"
)

// BacktestStatus is the lifecycle status of a backtest run.
type BacktestStatus string

const (
	StatusCreated   BacktestStatus = "CREATED"
	StatusRunning   BacktestStatus = "RUNNING"
	StatusCompleted BacktestStatus = "COMPLETED"
	StatusFailed    BacktestStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed within a
// single completion pass.
func (s BacktestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the transition s -> next is legal.
// Terminal states only accept themselves; re-running a backtest is a
// separate workflow that re-enters at CREATED outside this check.
func (s BacktestStatus) CanTransitionTo(next BacktestStatus) bool {
	switch s {
	case StatusCreated:
		return next == StatusRunning || next == StatusFailed
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	default:
		return s == next
	}
}

// Backtest represents one requested backtest run against a portfolio.
type Backtest struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	PortfolioID   uuid.UUID      `db:"portfolio_id" json:"portfolio_id"`
	StartDate     time.Time      `db:"start_date" json:"start_date"`
	EndDate       time.Time      `db:"end_date" json:"end_date"`
	BenchmarkCode string         `db:"benchmark_code" json:"benchmark_code"`
	RuleID        *uuid.UUID     `db:"rule_id" json:"rule_id,omitempty"`
	Status        BacktestStatus `db:"status" json:"status"`
	FailureReason string         `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}
