package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/silent9669/chucamo-sub001/internal/api/http"
	"github.com/silent9669/chucamo-sub001/internal/audit"
	auth "github.com/silent9669/chucamo-sub001/internal/auth/middleware"
	"github.com/silent9669/chucamo-sub001/internal/config"
	"github.com/silent9669/chucamo-sub001/internal/content"
	"github.com/silent9669/chucamo-sub001/internal/db"
	"github.com/silent9669/chucamo-sub001/internal/rbac"
	"github.com/silent9669/chucamo-sub001/internal/report"
	"github.com/silent9669/chucamo-sub001/internal/results"
	"github.com/silent9669/chucamo-sub001/internal/session"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	testStore := content.NewSQLStore(dbh)
	sessionStore := session.NewStore(session.NewSQLKV(dbh))
	events := audit.NewRepo(dbh, cfg.SiteID)

	// Content for the engine: grading view. Online mode pulls from the
	// remote content service instead of the local tests table.
	var tests content.Service = content.FullView{Store: testStore}
	if cfg.Mode == config.ModeOnline && cfg.ContentBaseURL != "" {
		tests = content.NewHTTPClient(cfg.ContentBaseURL)
	}

	// Results + reward collaborators; offline runs against the local stub.
	var resultsSvc report.Results = results.NewLocal()
	if cfg.ResultsBaseURL != "" {
		resultsSvc = results.NewClient(cfg.ResultsBaseURL, cfg.ResultsTokenURL, cfg.ResultsClientID, cfg.ResultsClientSecret)
	}
	var reward report.RewardRefresher
	if cfg.RewardBaseURL != "" {
		reward = results.NewRewardClient(cfg.RewardBaseURL)
	}
	reporter := report.NewReporter(resultsSvc, reward, sessionStore)

	engine := api.NewEngine(tests, sessionStore, reporter, events, time.Duration(cfg.AutosaveSec)*time.Second)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, auth.LoginOpts{
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
	}))

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("test:create")).
			Post("/tests", api.UploadTestHandler(testStore))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}", api.GetTestHandler(testStore))

		pr.Route("/sessions/{testID}", func(sr chi.Router) {
			sr.Use(rbac.RequireAny("session:open", "session:*"))
			sr.Post("/", api.OpenSessionHandler(engine))
			sr.Get("/", api.GetSessionHandler(engine))
			sr.Post("/answer", api.AnswerHandler(engine))
			sr.Post("/eliminate", api.EliminateHandler(engine))
			sr.Post("/review-mark", api.ReviewMarkHandler(engine))
			sr.Post("/navigate", api.NavigateHandler(engine))
			sr.Get("/review", api.ReviewRowsHandler(engine))
			sr.Post("/pause", api.PauseHandler(engine))
			sr.Post("/exit", api.ExitHandler(engine))
			sr.Post("/finalize", api.FinalizeHandler(engine))

			sr.Post("/highlight-mode", api.HighlightModeHandler(engine))
			sr.Post("/highlights/select", api.HighlightSelectHandler(engine))
			sr.Post("/highlights", api.HighlightCommitHandler(engine))
			sr.Post("/highlights/cancel", api.HighlightCancelHandler(engine))
			sr.Delete("/highlights/{highlightID}", api.HighlightRemoveHandler(engine))
			sr.Delete("/highlights", api.HighlightClearHandler(engine))
		})

		pr.With(rbac.Require("summary:view-own")).
			Get("/summaries/{testID}", api.SummaryHandler(engine))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
