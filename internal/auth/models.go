package auth

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// JSONB wraps json.RawMessage with Scanner/Valuer for GORM JSONB columns.
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = JSONB("{}")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("unsupported type: %T", value)
	}
	return nil
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.RawMessage(j).MarshalJSON()
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("JSONB: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// Account is the single account entity: identity and credentials plus the
// behavioral telemetry captured at signup. Identity fields are immutable
// after creation and accounts are never deleted here.
type Account struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"uniqueIndex;not null" json:"username"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"`
	FullName       string `json:"full_name"`
	DOB            string `json:"dob"`
	HashedPassword string `json:"-"`
	Role           string `gorm:"default:'user'" json:"role"`

	// Behavioral/biometric placeholders, not consulted by the auth flows.
	FingerprintTemplate string          `json:"fingerprint_template,omitempty"`
	TypingDelays        pq.Float64Array `gorm:"type:float8[]" json:"typing_delays,omitempty"`
	FieldFocusOrder     pq.StringArray  `gorm:"type:text[]" json:"field_focus_order,omitempty"`
	MouseMoves          int             `json:"mouse_moves,omitempty"`
	DeviceList          pq.StringArray  `gorm:"type:text[]" json:"device_list,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// LoginLog is an append-only audit record for a successful login. Rows are
// created exactly once per login and never mutated or deleted.
type LoginLog struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	AccountID   string    `gorm:"index" json:"account_id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Token       string    `json:"token"`
	IPAddress   string    `json:"ip_address"`
	GeoLocation JSONB     `gorm:"type:jsonb;default:'{}'" json:"geo_location"`
	Timestamp   time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (Account) TableName() string  { return "app_auth.accounts" }
func (LoginLog) TableName() string { return "app_auth.login_logs" }
