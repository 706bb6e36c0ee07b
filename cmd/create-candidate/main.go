package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/prepnova/mocktest-backend/internal/config"
	"github.com/prepnova/mocktest-backend/internal/database"
	"github.com/prepnova/mocktest-backend/internal/logger"
	"github.com/prepnova/mocktest-backend/internal/model"
	"github.com/prepnova/mocktest-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Interactive CLI for creating a candidate or admin account.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	candidateRepo := repository.NewCandidateRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Account ===")

	fmt.Print("Account type (candidate/admin, default candidate): ")
	kind, _ := reader.ReadString('\n')
	kind = strings.TrimSpace(strings.ToLower(kind))
	if kind == "" {
		kind = "candidate"
	}
	if kind != "candidate" && kind != "admin" {
		fmt.Println("Error: account type must be candidate or admin")
		return
	}

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	if kind == "admin" {
		admin := &model.Admin{
			Name:         name,
			Email:        email,
			PasswordHash: string(hashedPassword),
		}
		if err := adminRepo.Create(ctx, admin); err != nil {
			log.Fatal().Err(err).Msg("Failed to create admin")
		}
		fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %s\n", admin.Name, admin.Email, admin.ID)
		return
	}

	candidate := &model.Candidate{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := candidateRepo.Create(ctx, candidate); err != nil {
		log.Fatal().Err(err).Msg("Failed to create candidate")
	}
	fmt.Printf("\nSuccess! Candidate '%s' (%s) created with ID: %s\n", candidate.Name, candidate.Email, candidate.ID)
}
