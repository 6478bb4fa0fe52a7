package server

import (
	"net/http"

	"GearUpToFit/internal/utility"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

const (
	sessionCookieName = "gearup_session"
	sessionIDValue    = "id"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     s.allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	e.GET("/health", s.healthHandler)

	api := e.Group("/api")
	api.Use(s.SessionMiddleware)

	// Fitness
	api.POST("/fitness-age", s.fitnessAgeHandler)

	// Nutrition profile & meal plan
	api.PUT("/profile", s.putProfileHandler)
	api.GET("/profile", s.getProfileHandler)
	api.DELETE("/profile", s.resetHandler)
	api.POST("/meal-plan", s.generateMealPlanHandler)
	api.GET("/meal-plan", s.getMealPlanHandler)
	api.PUT("/meal-plan/meals/:name/rating", s.rateMealHandler)
	api.POST("/meal-plan/grocery-list", s.groceryListHandler)

	// Recipes & products
	api.POST("/recipes/analyze", s.analyzeRecipeHandler)
	api.POST("/products/scan", s.scanProductHandler)

	return e
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(utility.RequestIDKey, requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Set(utility.LoggerKey, &logger)

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		logger.Info().
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Str("ip", utility.GetRealIP(c)).
			Int("status", c.Response().Status).
			Msg("request")
		return nil
	}
}

// SessionMiddleware makes sure every /api request carries a session ID in a
// signed cookie. A missing or tampered cookie starts a fresh session.
func (s *Server) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Get returns a new session alongside the decode error for a bad cookie.
		sess, err := s.cookies.Get(c.Request(), sessionCookieName)
		if err != nil {
			utility.GetLogger(c).Debug().Err(err).Msg("Discarding unreadable session cookie")
		}

		id, ok := sess.Values[sessionIDValue].(string)
		if !ok || id == "" {
			id = uuid.New().String()
			sess.Values[sessionIDValue] = id
			if err := sess.Save(c.Request(), c.Response()); err != nil {
				utility.GetLogger(c).Error().Err(err).Msg("Failed to save session cookie")
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start session"})
			}
		}

		c.Set(utility.SessionIDKey, id)
		logger := utility.GetLogger(c).With().Str("session_id", id).Logger()
		c.Set(utility.LoggerKey, &logger)

		return next(c)
	}
}
