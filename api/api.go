// Package api exposes the ledger over HTTP. Every operation of the ledger
// maps to one endpoint; errors carry stable numeric codes so clients can
// dispatch on them across versions.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.vocdoni.io/dvote/log"

	"github.com/cloakledger/cloak/ledger"
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host   string
	Port   int
	Ledger *ledger.Ledger
}

// API type represents the API HTTP server over a ledger instance.
type API struct {
	router *chi.Mux
	ledger *ledger.Ledger
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Ledger == nil {
		return nil, fmt.Errorf("missing ledger instance")
	}
	a := &API{
		ledger: conf.Ledger,
	}
	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	a.router.Get(InfoEndpoint, a.info)
	a.router.Get(AdminEndpoint, a.admin)
	a.router.Post(AdminEndpoint, a.setAdmin)
	a.router.Get(MinterEndpoint, a.minter)
	a.router.Post(MinterEndpoint, a.setMinter)
	a.router.Get(SupplyEndpoint, a.supply)
	a.router.Get(PublicBalanceEndpoint, a.publicBalance)
	a.router.Get(PrivateBalanceEndpoint, a.privateBalance)
	a.router.Post(EncryptionKeyEndpoint, a.registerKey)
	a.router.Post(MintPublicEndpoint, a.mintPublic)
	a.router.Post(TransferPublicEndpoint, a.transferPublic)
	a.router.Post(BurnPublicEndpoint, a.burnPublic)
	a.router.Post(MintPrivateEndpoint, a.mintPrivate)
	a.router.Post(ShieldEndpoint, a.shield)
	a.router.Post(RedeemShieldEndpoint, a.redeemShield)
	a.router.Post(UnshieldEndpoint, a.unshield)
	a.router.Post(TransferPrivateEndpoint, a.transferPrivate)
	a.router.Post(BurnPrivateEndpoint, a.burnPrivate)
	a.router.Get(EscrowsEndpoint, a.escrows)
	a.router.Post(EscrowsEndpoint, a.newEscrow)
	a.router.Post(SettleEscrowEndpoint, a.settleEscrow)
	a.router.Post(BroadcastEscrowEndpoint, a.broadcastEscrow)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
