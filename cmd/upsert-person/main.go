// Command upsert-person creates or updates one person and its email index
// entry in a single transaction.
//
// Usage:
//
//	upsert-person --email=ada@example.com [--id=person-id] [--first-name=Ada] [--last-name=Lovelace] [--language=en] [--admin]
//
// Exit codes: 0 = saved, 1 = error, 2 = invalid input, 3 = email owned by another person.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/cfp-sync/internal/app"
	"github.com/heartmarshall/cfp-sync/internal/config"
	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/internal/service/person"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always runs.
func run() int {
	configPath := flag.String("config", "", "path to config YAML (default: $CONFIG_PATH or ./config.yaml)")
	id := flag.String("id", "", "person id to update (empty creates a new person)")
	email := flag.String("email", "", "email address (required)")
	firstName := flag.String("first-name", "", "first name")
	lastName := flag.String("last-name", "", "last name")
	language := flag.String("language", "", "preferred language")
	hasAccount := flag.Bool("account", false, "person has a platform account")
	admin := flag.Bool("admin", false, "person is a platform admin")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		log.Printf("load config: %v", err)
		return exitError
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		return exitError
	}
	defer a.Close()

	p, err := a.Persons.Save(ctx, person.SaveInput{
		ID:                *id,
		Email:             *email,
		FirstName:         *firstName,
		LastName:          *lastName,
		PreferredLanguage: *language,
		HasAccount:        *hasAccount,
		IsPlatformAdmin:   *admin,
	})
	if code := exitCode(err); code != exitOK {
		switch code {
		case exitEmailExists:
			fmt.Fprintf(os.Stderr, "email %q is already used by another person\n", *email)
		case exitInvalid:
			fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
		default:
			logger.Error("save person", slog.String("error", err.Error()))
		}
		return code
	}

	fmt.Printf("Person %s saved (%s).\n", p.ID, p.Email)
	return exitOK
}

const (
	exitOK          = 0
	exitError       = 1
	exitInvalid     = 2
	exitEmailExists = 3
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrEmailExists):
		return exitEmailExists
	case errors.Is(err, domain.ErrValidation):
		return exitInvalid
	default:
		return exitError
	}
}
