/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the AI
client and the in-memory session store into the Echo router.
*/
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"GearUpToFit/internal/config"
	"GearUpToFit/internal/models"
	"GearUpToFit/internal/session"
	"github.com/gorilla/sessions"
)

// Inference is the subset of geminiservice.Client the handlers call.
type Inference interface {
	ComputeFitnessAge(ctx context.Context, profile models.FitnessProfile) (*models.FitnessAgeResult, error)
	GenerateMealPlan(ctx context.Context, profile models.UserProfile) (*models.MealPlan, error)
	GenerateGroceryList(ctx context.Context, plan models.MealPlan) (string, error)
	AnalyzeRecipe(ctx context.Context, rawURL string) (*models.AnalyzedRecipe, error)
	LookupScannedProduct(ctx context.Context) (*models.ScannedProduct, error)
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// ai answers every generation request.
	ai Inference

	// sessions holds per-visitor profile and meal plan state.
	sessions *session.Store

	// cookies signs the cookie carrying the session ID.
	cookies *sessions.CookieStore

	// allowedOrigins are the only origins CORS answers for.
	allowedOrigins []string

	startTime time.Time
}

func newApp(cfg config.Config, ai Inference, store *session.Store) *Server {
	cookies := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	return &Server{
		port:           cfg.Port,
		ai:             ai,
		sessions:       store,
		cookies:        cookies,
		allowedOrigins: cfg.AllowedOrigins,
		startTime:      time.Now(),
	}
}

// NewServer returns a configured *http.Server. WriteTimeout leaves room for
// the Gemini call on top of reading the request.
func NewServer(cfg config.Config, ai Inference, store *session.Store) *http.Server {
	app := newApp(cfg, ai, store)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", app.port),
		Handler:      app.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Gemini.Timeout + 10*time.Second,
	}
}
