// Package app wires configuration, storage, policy and services into a runnable process.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	accounthandler "contract-rbac/internal/account/handler"
	accountrepo "contract-rbac/internal/account/repository"
	accountservice "contract-rbac/internal/account/service"
	"contract-rbac/internal/config"
	contracthandler "contract-rbac/internal/contract/handler"
	contractrepo "contract-rbac/internal/contract/repository"
	contractservice "contract-rbac/internal/contract/service"
	"contract-rbac/internal/db"
	healthhandler "contract-rbac/internal/health/handler"
	identityhandler "contract-rbac/internal/identity/handler"
	identityservice "contract-rbac/internal/identity/service"
	"contract-rbac/internal/platform/rbac"
	"contract-rbac/internal/policy/engine"
	"contract-rbac/internal/security"
	"contract-rbac/internal/server"
)

// App holds the wired services. Build one with New and release it with Close.
type App struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	health *healthhandler.Server

	Accounts      accountrepo.Repository
	Contracts     contractrepo.Repository
	Authz         *rbac.Engine
	Auth          *identityservice.AuthService
	Personal      *accountservice.PersonalService
	Organizations *accountservice.OrganizationService
	ContractSvc   *contractservice.ContractService
}

// New builds the App described by cfg. Postgres repositories are used when
// DATABASE_URL is set, in-memory ones otherwise.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, db.PoolConfig{ConnString: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.pool = pool
		a.Accounts = accountrepo.NewPostgresRepository(pool)
		a.Contracts = contractrepo.NewPostgresRepository(pool)
		log.Info().Msg("using postgres repositories")
	} else {
		accounts := accountrepo.NewMemoryRepository()
		contracts := contractrepo.NewMemoryRepository()
		accounts.TrackContracts(contracts)
		contracts.RequireOwners(accounts)
		a.Accounts = accounts
		a.Contracts = contracts
		log.Warn().Msg("DATABASE_URL is not set; using in-memory repositories")
	}

	evaluator, policyChecker, err := newEvaluator(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokens, err := newTokenProvider(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	a.Authz = rbac.NewEngine(a.Accounts, evaluator)
	a.Auth = identityservice.NewAuthService(a.Accounts, hasher, tokens)
	a.Personal = accountservice.NewPersonalService(a.Accounts, a.Contracts, a.Authz, hasher)
	a.Organizations = accountservice.NewOrganizationService(a.Accounts, a.Contracts, a.Authz, cfg.OrgDeleteMode)
	a.ContractSvc = contractservice.NewContractService(a.Contracts, a.Accounts, a.Authz)

	var pinger healthhandler.Pinger
	if a.pool != nil {
		pinger = a.pool
	}
	a.health = healthhandler.NewServer(pinger, policyChecker)
	return a, nil
}

// HTTPHandler returns the HTTP API.
func (a *App) HTTPHandler(logger zerolog.Logger) http.Handler {
	return server.NewRouter(server.HTTPDeps{
		Logger:         logger,
		AllowedOrigins: a.cfg.AllowedOrigins(),
		Resolver:       a.Auth,
		Identity:       identityhandler.New(a.Auth),
		Accounts:       accounthandler.New(a.Personal, a.Organizations),
		Contracts:      contracthandler.New(a.ContractSvc),
		Health:         a.health,
	})
}

// GRPCServer returns the gRPC health server.
func (a *App) GRPCServer(logger zerolog.Logger) *grpc.Server {
	return server.NewGRPCServer(server.GRPCDeps{
		Logger:     logger,
		Health:     a.health,
		Reflection: !a.cfg.IsProduction(),
	})
}

// Ready reports whether the database and policy engine respond.
func (a *App) Ready(ctx context.Context) error {
	return a.health.Ready(ctx)
}

// Close releases the database pool.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// newEvaluator returns the role policy evaluator selected by POLICY_ENGINE. The OPA
// evaluator doubles as a health check dependency.
func newEvaluator(ctx context.Context, cfg *config.Config) (engine.Evaluator, healthhandler.PolicyChecker, error) {
	if cfg.PolicyEngine != config.PolicyEngineOPA {
		return engine.NewStaticEvaluator(nil), nil, nil
	}
	opa, err := engine.LoadOPAEvaluator(ctx, cfg.PolicyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("policy: %w", err)
	}
	if err := opa.HealthCheck(ctx); err != nil {
		return nil, nil, fmt.Errorf("policy: %w", err)
	}
	return opa, opa, nil
}

// newTokenProvider loads the configured key pair, or generates an ephemeral ECDSA key
// outside production. Tokens signed with an ephemeral key do not survive a restart.
func newTokenProvider(cfg *config.Config) (*security.TokenProvider, error) {
	if cfg.JWTPrivateKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("jwt: keys are required in production")
		}
		priv, pub, err := security.GenerateEphemeralKey()
		if err != nil {
			return nil, fmt.Errorf("jwt: %w", err)
		}
		log.Warn().Msg("JWT keys not configured; using an ephemeral signing key")
		return security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL()), nil
	}
	priv, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("jwt private key: %w", err)
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		return nil, fmt.Errorf("jwt public key: %w", err)
	}
	return security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL()), nil
}
