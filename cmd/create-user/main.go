package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/database"
	"github.com/stemsi/websurvey-backend/internal/logger"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

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

	userRepo := repository.NewUserRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	// Name
	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// Password
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

	// Role
	fmt.Print("Enter Role [respondent/admin] (default respondent): ")
	roleStr, _ := reader.ReadString('\n')
	role := model.Role(strings.ToLower(strings.TrimSpace(roleStr)))
	switch role {
	case "":
		role = model.RoleRespondent
	case model.RoleRespondent, model.RoleAdmin:
	default:
		fmt.Printf("Error: unknown role %q\n", role)
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			fmt.Printf("Error: a user with email %s already exists\n", email)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %s\n", user.Role, user.Name, user.Email, user.ID)
}
