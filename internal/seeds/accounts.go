package seeds

import (
	"fmt"
	"log"
	"os"

	"github.com/FinVerify/FV-Backend/internal/auth"
	"github.com/FinVerify/FV-Backend/internal/db"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedAccount struct {
	FullName string `yaml:"full_name"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// SeedAccounts bootstraps accounts (notably the designated admin) from
// accounts.yaml. Existing usernames are skipped, so reruns are safe.
func SeedAccounts() error {
	var accounts []seedAccount

	file, err := os.ReadFile("internal/seeds/data/accounts.yaml")
	if err != nil {
		return fmt.Errorf("could not read accounts.yaml: %w", err)
	}

	if err := yaml.Unmarshal(file, &accounts); err != nil {
		return fmt.Errorf("failed to parse accounts.yaml: %w", err)
	}

	for _, seed := range accounts {
		var existing auth.Account
		err := db.DB.First(&existing, "username = ?", seed.Username).Error

		if err == nil {
			log.Printf("Account exists, skipping: %s", seed.Username)
			continue
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("DB error on account %s: %w", seed.Username, err)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password for %s: %w", seed.Username, err)
		}

		role := seed.Role
		if role == "" {
			role = "user"
		}

		account := auth.Account{
			ID:             uuid.NewString(),
			Username:       seed.Username,
			Email:          seed.Email,
			FullName:       seed.FullName,
			HashedPassword: string(hashed),
			Role:           role,
		}
		if err := db.DB.Create(&account).Error; err != nil {
			return fmt.Errorf("creating account %s: %w", seed.Username, err)
		}
		log.Printf("Seeded account: %s (%s)", seed.Username, role)
	}

	return nil
}
