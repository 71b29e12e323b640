package auth

import (
	"errors"

	"github.com/FinVerify/FV-Backend/internal/db"
	"gorm.io/gorm"
)

// ErrDuplicateIdentity is returned when a signup collides with an existing
// username or email.
var ErrDuplicateIdentity = errors.New("username or email already in use")

// AccountDirectory is the credential-store contract: lookups by identifier
// and guarded creation.
type AccountDirectory struct{}

// FindByEmailOrUsername returns the account whose email or username equals
// identifier. Unknown identifiers surface gorm.ErrRecordNotFound.
func (AccountDirectory) FindByEmailOrUsername(identifier string) (*Account, error) {
	var account Account
	err := db.DB.Where("email = ? OR username = ?", identifier, identifier).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Create persists a new account. The pre-check catches the common case;
// the unique indexes on username and email close the race between
// concurrent signups at the storage layer.
func (AccountDirectory) Create(account *Account) error {
	var existing Account
	err := db.DB.Where("username = ? OR email = ?", account.Username, account.Email).First(&existing).Error
	if err == nil {
		return ErrDuplicateIdentity
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := db.DB.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateIdentity
		}
		return err
	}
	return nil
}
