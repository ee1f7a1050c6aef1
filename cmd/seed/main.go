// seed loads the Tech Corp sample data through the services: Alice owns the
// organization, Bob is an editor, Charlie a viewer, and the organization owns one
// contract. Running it again changes nothing.
package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	"contract-rbac/internal/app"
	"contract-rbac/internal/config"
	"contract-rbac/internal/logger"
	membership "contract-rbac/internal/membership/domain"
)

var cli struct {
	Secret  string `help:"Secret for every seeded account." default:"password123" env:"SEED_SECRET"`
	OrgName string `help:"Name of the seeded organization." default:"Tech Corp"`
}

type seedUser struct {
	name  string
	email string
	role  membership.Role
}

var users = []seedUser{
	{"alice", "alice@example.com", membership.RoleOwner},
	{"bob", "bob@example.com", membership.RoleEditor},
	{"charlie", "charlie@example.com", membership.RoleViewer},
}

func main() {
	kctx := kong.Parse(&cli, kong.Description("Seed sample accounts, an organization and a contract."))
	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)
	log.Logger = logger.Setup(cfg.LogLevel, !cfg.IsProduction())
	kctx.FatalIfErrorf(seed(context.Background(), cfg))
}

func seed(ctx context.Context, cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL is not set; seeding in-memory repositories that vanish on exit")
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ids := make(map[string]string, len(users))
	for _, u := range users {
		id, err := ensureAccount(ctx, a, u.email)
		if err != nil {
			return fmt.Errorf("account %s: %w", u.email, err)
		}
		ids[u.name] = id
	}
	owner := ids["alice"]

	org, err := ensureOrganization(ctx, a, owner)
	if err != nil {
		return fmt.Errorf("organization: %w", err)
	}
	for _, u := range users {
		if u.role == membership.RoleOwner || org.IsMember(ids[u.name]) {
			continue
		}
		if org, err = a.Organizations.AddMember(ctx, owner, org.ID, ids[u.name], u.role); err != nil {
			return fmt.Errorf("add %s: %w", u.name, err)
		}
	}

	contracts, err := a.ContractSvc.ListForOrg(ctx, owner, org.ID)
	if err != nil {
		return err
	}
	if len(contracts) == 0 {
		if _, err := a.ContractSvc.CreateForOrg(ctx, ids["bob"], org.ID, "Software License", "Terms and conditions"); err != nil {
			return fmt.Errorf("contract: %w", err)
		}
	}

	log.Info().
		Str("org_id", org.ID).
		Str("alice", ids["alice"]).
		Str("bob", ids["bob"]).
		Str("charlie", ids["charlie"]).
		Msg("seed complete")
	return nil
}

// ensureAccount registers email, or logs in when it is already registered.
func ensureAccount(ctx context.Context, a *app.App, email string) (string, error) {
	res, err := a.Auth.Register(ctx, email, cli.Secret)
	if apperr.KindOf(err) == apperr.Conflict {
		res, err = a.Auth.Login(ctx, email, cli.Secret)
	}
	if err != nil {
		return "", err
	}
	return res.AccountID, nil
}

func ensureOrganization(ctx context.Context, a *app.App, ownerID string) (*domain.Organization, error) {
	owned, err := a.Organizations.ListOwned(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, o := range owned {
		if o.Name == cli.OrgName {
			return o, nil
		}
	}
	return a.Organizations.Create(ctx, ownerID, cli.OrgName, "Technology company")
}
