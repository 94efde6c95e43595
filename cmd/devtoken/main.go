// devtoken mints a bearer token for local testing. It reads the signing
// secret and issuer from the same environment as the API server.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/config"
	"github.com/spec-kit/service-desk/internal/domain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		organizationID string
		subject        string
		name           string
		role           string
		ttl            time.Duration
	)

	flagSet := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	flagSet.StringVar(&organizationID, "org", "org-dev", "organization id embedded in the token")
	flagSet.StringVar(&subject, "sub", "dev-user", "actor id")
	flagSet.StringVar(&name, "name", "Dev User", "actor display name")
	flagSet.StringVar(&role, "role", string(domain.ActorRoleDispatcher), "ENGINEER, DISPATCHER, ADMIN or CUSTOMER")
	flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime (default: AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if ttl <= 0 {
		ttl = cfg.Auth.AccessTokenTTL()
	}

	actorRole := domain.ActorRole(strings.ToUpper(role))
	if !actorRole.IsValid() || actorRole == domain.ActorRoleSystem {
		return fmt.Errorf("unsupported role %q", role)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, ttl)
	token, expiresAt, err := tokens.GenerateToken(organizationID, domain.Actor{ID: subject, Name: name, Role: actorRole})
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
