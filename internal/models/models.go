package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// SimRun is one engine lifetime on one server instance.
type SimRun struct {
	ID              int          `db:"id" json:"id"`
	Instance        string       `db:"instance" json:"instance"`
	Scene           string       `db:"scene" json:"scene"`
	Workers         int          `db:"workers" json:"workers"`
	Capacity        int          `db:"capacity" json:"capacity"`
	WorldWidth      float64      `db:"world_width" json:"world_width"`
	WorldHeight     float64      `db:"world_height" json:"world_height"`
	LastStep        int64        `db:"last_step" json:"last_step"`
	LastActiveCount int          `db:"last_active_count" json:"last_active_count"`
	StepsPerSecond  float64      `db:"steps_per_second" json:"steps_per_second"`
	BarrierTimeouts int64        `db:"barrier_timeouts" json:"barrier_timeouts"`
	StartedAt       time.Time    `db:"started_at" json:"started_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
	StoppedAt       sql.NullTime `db:"stopped_at" json:"stopped_at,omitempty"`
}

// Preset is a persisted override for a live physics parameter.
type Preset struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Operator may drive the simulation through the control API.
type Operator struct {
	Name      string         `db:"name" json:"name"`
	TokenHash string         `db:"token_hash" json:"-"`
	Roles     pq.StringArray `db:"roles" json:"roles"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the operator holds role or is a super operator.
func (o *Operator) HasRole(role string) bool {
	for _, r := range o.Roles {
		if r == role || r == "super" {
			return true
		}
	}
	return false
}

// OperatorAudit records one control action.
type OperatorAudit struct {
	ID        int            `db:"id" json:"id"`
	Operator  string         `db:"operator" json:"operator"`
	IP        sql.NullString `db:"ip" json:"ip,omitempty"`
	Route     string         `db:"route" json:"route"`
	Action    string         `db:"action" json:"action"`
	Details   []byte         `db:"details" json:"details"`
	Success   bool           `db:"success" json:"success"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
