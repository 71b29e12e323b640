package main

import (
	"log"

	"github.com/FinVerify/FV-Backend/internal/db"
	"github.com/FinVerify/FV-Backend/internal/seeds"
)

func main() {
	db.Connect()

	if err := seeds.SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
