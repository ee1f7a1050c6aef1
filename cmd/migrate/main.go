// migrate applies or rolls back the embedded SQL migrations against DATABASE_URL.
package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"contract-rbac/internal/config"
	"contract-rbac/internal/db/migrate"
)

type upCmd struct{}

func (upCmd) Run(cfg *config.Config) error {
	return run(cfg, "up")
}

type downCmd struct{}

func (downCmd) Run(cfg *config.Config) error {
	return run(cfg, "down")
}

var cli struct {
	Up   upCmd   `cmd:"" default:"1" help:"Apply all pending migrations."`
	Down downCmd `cmd:"" help:"Roll back all migrations."`
}

func main() {
	kctx := kong.Parse(&cli, kong.Description("Run database migrations."))
	cfg, err := config.Load()
	kctx.FatalIfErrorf(err)
	kctx.FatalIfErrorf(kctx.Run(cfg))
}

func run(cfg *config.Config, direction string) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set; create a .env or export DATABASE_URL")
	}
	if err := migrate.Run(cfg.DatabaseURL, direction); err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	fmt.Printf("migrations %s: done\n", direction)
	return nil
}
