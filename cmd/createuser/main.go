// Command createuser creates a login or resets the password of an existing one.
//
//	go run ./cmd/createuser -username admin -password secret
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kerem-gursoy/uup/internal/config"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/infra"
	"github.com/kerem-gursoy/uup/internal/repository"
	"github.com/kerem-gursoy/uup/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "", "login name")
	password := flag.String("password", os.Getenv("CREATEUSER_PASSWORD"), "password (defaults to $CREATEUSER_PASSWORD)")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := auth.SetPassword(ctx, dto.CredentialsRequest{Username: *username, Password: *password})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to save user")
	}
	fmt.Printf("user %q (id %d) saved\n", user.Username, user.ID)
}
