package server

import (
	"errors"
	"net/http"
	"net/url"

	"GearUpToFit/internal/geminiservice"
	"GearUpToFit/internal/grocery"
	"GearUpToFit/internal/models"
	"GearUpToFit/internal/session"
	"GearUpToFit/internal/utility"
	"github.com/labstack/echo/v4"
)

var (
	errNoProfile = errors.New("no nutrition profile saved for this session")
	errNoPlan    = errors.New("no meal plan generated for this session")
)

type ratingRequest struct {
	Rating int `json:"rating"`
}

type recipeRequest struct {
	URL string `json:"url"`
}

type groceryListResponse struct {
	Markdown string            `json:"markdown"`
	Sections []grocery.Section `json:"sections"`
}

/*=================================================================================
                         		ERROR MAPPING
=================================================================================*/

// respondError maps domain and inference errors to the HTTP status and
// {"error": ...} body the frontend expects.
func respondError(c echo.Context, operation string, err error) error {
	logger := utility.GetLogger(c)

	var validationErr *models.ValidationError
	var decodeErr *geminiservice.DecodeError
	var transportErr *geminiservice.TransportError

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":  validationErr.Error(),
			"fields": validationErr.Fields,
		})

	case errors.Is(err, models.ErrInvalidRating), errors.Is(err, geminiservice.ErrInvalidURL):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})

	case errors.Is(err, models.ErrMealNotFound), errors.Is(err, errNoPlan), errors.Is(err, errNoProfile):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})

	case errors.As(err, &decodeErr):
		logger.Error().Err(err).Str("operation", operation).Msg("AI returned an unusable response")
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "Received an invalid response from the AI. Please try again.",
		})

	case errors.As(err, &transportErr):
		logger.Error().Err(err).Str("operation", operation).Int("upstream_status", transportErr.StatusCode).Msg("Gemini service failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "AI service temporarily unavailable. Please try again later.",
		})
	}

	logger.Error().Err(err).Str("operation", operation).Msg("Unexpected error")
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func bindError(c echo.Context, err error) error {
	utility.GetLogger(c).Warn().Err(err).Msg("Failed to bind request body")
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
}

/*=================================================================================
                         		FITNESS
=================================================================================*/

// fitnessAgeHandler is stateless: the profile is not kept in the session.
func (s *Server) fitnessAgeHandler(c echo.Context) error {
	var profile models.FitnessProfile
	if err := c.Bind(&profile); err != nil {
		return bindError(c, err)
	}

	result, err := s.ai.ComputeFitnessAge(c.Request().Context(), profile)
	if err != nil {
		return respondError(c, "FitnessAge", err)
	}
	return c.JSON(http.StatusOK, result)
}

/*=================================================================================
                         		NUTRITION PROFILE & MEAL PLAN
=================================================================================*/

func (s *Server) putProfileHandler(c echo.Context) error {
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return respondError(c, "SaveProfile", err)
	}

	var profile models.UserProfile
	if err := c.Bind(&profile); err != nil {
		return bindError(c, err)
	}
	if err := profile.Validate(); err != nil {
		return respondError(c, "SaveProfile", err)
	}

	if _, err := s.sessions.Update(sessionID, func(st session.State) (session.State, error) {
		st.Profile = &profile
		return st, nil
	}); err != nil {
		return respondError(c, "SaveProfile", err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) getProfileHandler(c echo.Context) error {
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return respondError(c, "GetProfile", err)
	}

	st, ok := s.sessions.Get(sessionID)
	if !ok || st.Profile == nil {
		return respondError(c, "GetProfile", errNoProfile)
	}
	return c.JSON(http.StatusOK, st.Profile)
}

// resetHandler discards the profile, the plan and its ratings.
func (s *Server) resetHandler(c echo.Context) error {
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return respondError(c, "Reset", err)
	}
	s.sessions.Delete(sessionID)
	return c.NoContent(http.StatusNoContent)
}

// generateMealPlanHandler uses the body profile when one is sent, otherwise
// the one saved in the session. The new plan replaces any previous plan and
// its ratings.
func (s *Server) generateMealPlanHandler(c echo.Context) error {
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return respondError(c, "MealPlan", err)
	}

	var profile models.UserProfile
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&profile); err != nil {
			return bindError(c, err)
		}
	} else {
		st, ok := s.sessions.Get(sessionID)
		if !ok || st.Profile == nil {
			return respondError(c, "MealPlan", errNoProfile)
		}
		profile = *st.Profile
	}

	// The AI call happens outside the store lock.
	plan, err := s.ai.GenerateMealPlan(c.Request().Context(), profile)
	if err != nil {
		return respondError(c, "MealPlan", err)
	}

	if _, err := s.sessions.Update(sessionID, func(st session.State) (session.State, error) {
		st.Profile = &profile
		st.Plan = plan
		return st, nil
	}); err != nil {
		return respondError(c, "MealPlan", err)
	}
	return c.JSON(http.StatusOK, plan)
}

func (s *Server) getMealPlanHandler(c echo.Context) error {
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return respondError(c, "GetMealPlan", err)
	}

	st, ok := s.sessions.Get(sessionID)
	if !ok || st.Plan == nil {
		return respondError(c, "GetMealPlan", errNoPlan)
	}
	return c.JSON(http.StatusOK, st.Plan)
}

// rateMealHandler stores a rated copy of the plan; the previously stored
// plan value is left as it was.
func (s *Server) rateMealHandler(c echo.Context) error {
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return respondError(c, "RateMeal", err)
	}

	name := c.Param("name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	var req ratingRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}

	st, err := s.sessions.Update(sessionID, func(st session.State) (session.State, error) {
		if st.Plan == nil {
			return st, errNoPlan
		}
		rated, err := st.Plan.WithMealRating(name, req.Rating)
		if err != nil {
			return st, err
		}
		st.Plan = &rated
		return st, nil
	})
	if err != nil {
		return respondError(c, "RateMeal", err)
	}
	return c.JSON(http.StatusOK, st.Plan)
}

// groceryListHandler asks the AI on every call; lists are never cached.
func (s *Server) groceryListHandler(c echo.Context) error {
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return respondError(c, "GroceryList", err)
	}

	st, ok := s.sessions.Get(sessionID)
	if !ok || st.Plan == nil {
		return respondError(c, "GroceryList", errNoPlan)
	}

	markdown, err := s.ai.GenerateGroceryList(c.Request().Context(), *st.Plan)
	if err != nil {
		return respondError(c, "GroceryList", err)
	}

	return c.JSON(http.StatusOK, groceryListResponse{
		Markdown: markdown,
		Sections: grocery.Parse(markdown),
	})
}

/*=================================================================================
                         		RECIPES & PRODUCTS
=================================================================================*/

func (s *Server) analyzeRecipeHandler(c echo.Context) error {
	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}

	recipe, err := s.ai.AnalyzeRecipe(c.Request().Context(), req.URL)
	if err != nil {
		return respondError(c, "RecipeAnalysis", err)
	}
	return c.JSON(http.StatusOK, recipe)
}

// scanProductHandler simulates a barcode scan; there is no barcode input.
func (s *Server) scanProductHandler(c echo.Context) error {
	product, err := s.ai.LookupScannedProduct(c.Request().Context())
	if err != nil {
		return respondError(c, "ScannedProduct", err)
	}
	return c.JSON(http.StatusOK, product)
}
