package geminiservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"GearUpToFit/internal/models"
)

// ErrInvalidURL is returned by AnalyzeRecipe for anything but an absolute http(s) URL.
var ErrInvalidURL = errors.New("recipe URL must be an absolute http or https URL")

// ComputeFitnessAge asks Gemini for a fitness age audit of profile.
func (c *Client) ComputeFitnessAge(ctx context.Context, profile models.FitnessProfile) (*models.FitnessAgeResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	var result models.FitnessAgeResult
	if err := c.GenerateAndParse(ctx, "FitnessAge", BuildFitnessAgePrompt(profile), FitnessAgeSchema, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateMealPlan returns a one-day plan as Gemini produced it, minus any
// meal ratings. The totals are not recomputed from the meals.
func (c *Client) GenerateMealPlan(ctx context.Context, profile models.UserProfile) (*models.MealPlan, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	var plan models.MealPlan
	if err := c.GenerateAndParse(ctx, "MealPlan", BuildMealPlanPrompt(profile), MealPlanSchema, &plan); err != nil {
		return nil, err
	}
	// Ratings come from the visitor only; anything Gemini put there is dropped.
	for i := range plan.Meals {
		plan.Meals[i].Rating = nil
	}
	return &plan, nil
}

// GenerateGroceryList returns Gemini's markdown untouched. Grouping it into
// sections is left to the caller (see package grocery).
func (c *Client) GenerateGroceryList(ctx context.Context, plan models.MealPlan) (string, error) {
	prompt, err := BuildGroceryListPrompt(plan)
	if err != nil {
		return "", err
	}
	return c.generateContent(ctx, "GroceryList", prompt, nil)
}

// AnalyzeRecipe estimates the macros of the recipe behind rawURL.
func (c *Client) AnalyzeRecipe(ctx context.Context, rawURL string) (*models.AnalyzedRecipe, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	var recipe models.AnalyzedRecipe
	if err := c.GenerateAndParse(ctx, "RecipeAnalysis", BuildRecipeAnalysisPrompt(u.String()), AnalyzedRecipeSchema, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// LookupScannedProduct simulates a barcode lookup by asking Gemini to invent
// a plausible product.
func (c *Client) LookupScannedProduct(ctx context.Context) (*models.ScannedProduct, error) {
	var product models.ScannedProduct
	if err := c.GenerateAndParse(ctx, "ScannedProduct", ScannedProductPrompt, ScannedProductSchema, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GenerateAndParse sends one schema-constrained request and decodes the
// answer into out. Transport failures come back as *TransportError; text
// that is not a single JSON document matching schema comes back as
// *DecodeError, and the raw text is logged.
func (c *Client) GenerateAndParse(ctx context.Context, operation, prompt string, schema *GeminiSchema, out any) error {
	raw, err := c.generateContent(ctx, operation, prompt, schema)
	if err != nil {
		return err
	}

	if err := decodeStructured(operation, raw, schema, out); err != nil {
		c.logger.Error().
			Err(err).
			Str("operation", operation).
			Str("raw_response", raw).
			Msg("Failed to parse AI response")
		return err
	}
	return nil
}

// decodeStructured is the parse -> validate -> unmarshal pipeline, split out
// from the transport so it can be exercised on synthetic responses.
func decodeStructured(operation, raw string, schema *GeminiSchema, out any) error {
	text := strings.TrimSpace(raw)

	doc, err := parseDocument(text)
	if err != nil {
		return &DecodeError{Operation: operation, Raw: raw, Err: err}
	}

	if violations := ValidateDocument(doc, schema); len(violations) > 0 {
		return &DecodeError{Operation: operation, Raw: raw, Violations: violations, Err: errSchemaViolation}
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &DecodeError{Operation: operation, Raw: raw, Err: err}
	}
	return nil
}

/*=================================================================================
								PROMPT BUILDERS
=================================================================================*/

func BuildFitnessAgePrompt(p models.FitnessProfile) string {
	return fmt.Sprintf(
		FitnessAgePromptTemplate,
		p.Age,
		p.Gender,
		p.RestingHeartRate,
		p.Height,
		p.Weight,
		p.Waist,
		p.CardioMinutes,
		p.StrengthSessions,
		FitnessDisclaimer,
	)
}

func BuildMealPlanPrompt(p models.UserProfile) string {
	return fmt.Sprintf(
		MealPlanPromptTemplate,
		p.Name,
		p.Age,
		p.Weight,
		p.Height,
		p.Gender,
		p.ActivityLevel,
		p.Goal,
		orNone(p.Preferences),
		orNone(p.Allergies),
	)
}

// BuildGroceryListPrompt embeds the plan as indented JSON.
func BuildGroceryListPrompt(plan models.MealPlan) (string, error) {
	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal meal plan: %w", err)
	}
	return fmt.Sprintf(GroceryListPromptTemplate, planJSON), nil
}

func BuildRecipeAnalysisPrompt(recipeURL string) string {
	return fmt.Sprintf(RecipeAnalysisPromptTemplate, recipeURL)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}
