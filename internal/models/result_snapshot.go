package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ResultSnapshot is the aggregate root persisted for one completed
// backtest run. Report is the only field rewritten after creation; it
// always holds syntactically valid JSON (see report.NormalizeEnvelope).
type ResultSnapshot struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	BacktestID           uuid.UUID       `db:"backtest_id" json:"backtest_id"`
	BaseValue            float64         `db:"base_value" json:"base_value"`
	CurrentValue         float64         `db:"current_value" json:"current_value"`
	Metrics              json.RawMessage `db:"metrics" json:"metrics"`
	Report               json.RawMessage `db:"report" json:"report,omitempty"`
	StartedAt            time.Time       `db:"started_at" json:"started_at"`
	EndedAt              time.Time       `db:"ended_at" json:"ended_at"`
	ExecutionTimeSeconds float64         `db:"execution_time_seconds" json:"execution_time_seconds"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
}
