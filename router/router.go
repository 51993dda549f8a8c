// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/danielhkuo/trustvote/ballot"
	"github.com/danielhkuo/trustvote/chain"
	"github.com/danielhkuo/trustvote/cliparse"
	"github.com/danielhkuo/trustvote/db"
	"github.com/danielhkuo/trustvote/handlers"
	"github.com/danielhkuo/trustvote/middleware"
	"github.com/danielhkuo/trustvote/proxy"
	"github.com/danielhkuo/trustvote/registration"
	"github.com/danielhkuo/trustvote/remote"
	"github.com/danielhkuo/trustvote/session"
	"github.com/danielhkuo/trustvote/viewstate"
)

const sweepInterval = time.Minute

// NewRouter wires every route. View registries are swept until ctx ends,
// then all open views are torn down.
func NewRouter(ctx context.Context, conn *sql.DB, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()

	journal := db.NewJournal(conn)
	relay := proxy.NewRelay(cfg)
	client := remote.NewClient(proxy.New(cfg, relay), cfg, journal)
	reader := session.NewReader(cfg)

	booths := viewstate.New[*ballot.Booth]("ballot", cfg.ViewTTL)
	wizards := viewstate.New[*handlers.RegistrationView]("registration", cfg.ViewTTL)
	go booths.Run(ctx, sweepInterval)
	go wizards.Run(ctx, sweepInterval)

	var submitter registration.Submitter = registration.RemoteSubmitter{Registrar: client}
	if cfg.DemoMode {
		submitter = registration.SimulatedSubmitter{Delay: cfg.SimulatedDelay}
	}
	if cfg.WalletRelayURL == "" && !cfg.DemoMode {
		slog.Warn("no wallet relay configured, votes will be rejected")
	}

	// Initialize handlers
	homeHandler := handlers.NewHomeHandler(client)
	electionHandler := handlers.NewElectionHandler(client)
	ballotHandler := handlers.NewBallotHandler(client, booths, ballot.Deps{
		Contract:   cfg.ContractAddress,
		Transactor: chain.New(cfg),
		Journal:    journal,
		Salt:       cfg.SessionSecret,
	})
	registrationHandler := handlers.NewRegistrationHandler(wizards, registration.Deps{
		Submitter: submitter,
		Journal:   journal,
		Salt:      cfg.SessionSecret,
	})
	journalHandler := handlers.NewJournalHandler(journal)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Forwarding endpoint
	mux.Handle("POST /api/proxy", relay)

	// Pages
	mux.HandleFunc("GET /{$}", middleware.WithLogging(homeHandler.Home))
	mux.HandleFunc("GET /elections", middleware.WithLogging(middleware.RequireWallet(electionHandler.List)))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(middleware.RequireWallet(ballotHandler.Open)))
	mux.HandleFunc("GET /register", middleware.WithLogging(middleware.RequireWallet(registrationHandler.Open)))
	mux.HandleFunc("GET /register/success", middleware.WithLogging(middleware.RequireWallet(homeHandler.RegisterSuccess)))

	// Ballot view actions
	mux.HandleFunc("GET /ballots/{view}", middleware.WithLogging(middleware.RequireWalletAPI(ballotHandler.Get)))
	mux.HandleFunc("POST /ballots/{view}/select", middleware.WithLogging(middleware.RequireWalletAPI(ballotHandler.Select)))
	mux.HandleFunc("POST /ballots/{view}/submit", middleware.WithLogging(middleware.RequireWalletAPI(ballotHandler.Submit)))
	mux.HandleFunc("DELETE /ballots/{view}", middleware.WithLogging(middleware.RequireWalletAPI(ballotHandler.Close)))

	// Registration view actions
	mux.HandleFunc("GET /registrations/{view}", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.Get)))
	mux.HandleFunc("PUT /registrations/{view}/personal", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.Personal)))
	mux.HandleFunc("POST /registrations/{view}/id-image", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.IDImage)))
	mux.HandleFunc("POST /registrations/{view}/next", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.Next)))
	mux.HandleFunc("POST /registrations/{view}/back", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.Back)))
	mux.HandleFunc("POST /registrations/{view}/camera/start", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.StartCamera)))
	// Frames arrive several times a second, so no request logging
	mux.HandleFunc("POST /registrations/{view}/camera/frame", middleware.RequireWalletAPI(registrationHandler.Frame))
	mux.HandleFunc("POST /registrations/{view}/camera/capture", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.Capture)))
	mux.HandleFunc("POST /registrations/{view}/camera/retake", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.Retake)))
	mux.HandleFunc("DELETE /registrations/{view}", middleware.WithLogging(middleware.RequireWalletAPI(registrationHandler.Close)))

	// Diagnostics
	if cfg.DemoMode || cfg.DebugJournal {
		mux.HandleFunc("GET /debug/journal", middleware.WithLogging(middleware.RequireWalletAPI(journalHandler.Recent)))
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(middleware.WithSession(reader, mux))
}
