package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"GearUpToFit/internal/config"
	"GearUpToFit/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "gemini-test"

// fakeGemini records every generateContent request and answers with a
// configurable status and candidate text.
type fakeGemini struct {
	mu       sync.Mutex
	requests []GeminiPayload
	headers  []http.Header
	paths    []string

	status int
	text   string
	raw    string // full body override
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload GeminiPayload
	_ = json.NewDecoder(r.Body).Decode(&payload)

	f.mu.Lock()
	f.requests = append(f.requests, payload)
	f.headers = append(f.headers, r.Header.Clone())
	f.paths = append(f.paths, r.URL.Path)
	status, text, raw := f.status, f.text, f.raw
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if raw != "" {
		_, _ = w.Write([]byte(raw))
		return
	}
	_, _ = w.Write([]byte(envelope(text)))
}

func (f *fakeGemini) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGemini) lastPrompt(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	last := f.requests[len(f.requests)-1]
	require.NotEmpty(t, last.Contents)
	require.NotEmpty(t, last.Contents[0].Parts)
	return last.Contents[0].Parts[0].Text
}

func envelope(text string) string {
	body := map[string]any{
		"candidates": []any{
			map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
				"finishReason": "STOP",
			},
		},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func newTestClient(t *testing.T, fake *fakeGemini) (*Client, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	client, err := NewClient(config.GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1beta/",
		Model:   testModel,
		Timeout: 5 * time.Second,
	}, srv.Client(), zerolog.New(&logs))
	require.NoError(t, err)
	return client, &logs
}

func sampleFitnessProfile() models.FitnessProfile {
	return models.FitnessProfile{
		Age:              35,
		Gender:           models.GenderMale,
		RestingHeartRate: 65,
		Height:           180,
		Weight:           80,
		Waist:            85,
		CardioMinutes:    150,
		StrengthSessions: 2,
	}
}

const fitnessAgeJSON = `{
  "fitnessAge": 31,
  "analysis": "Your cardio habits put you ahead of your peers.",
  "strengths": ["Meeting 150 minutes of weekly cardio", "Healthy resting heart rate"],
  "areasForImprovement": ["Add a third strength session"],
  "vo2MaxEstimate": 42.5,
  "disclaimer": "This is an estimate for informational purposes and is not a substitute for professional medical advice."
}`

func TestNewClientMissingAPIKey(t *testing.T) {
	fake := &fakeGemini{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := NewClient(config.GeminiConfig{BaseURL: srv.URL, Model: testModel}, nil, zerolog.Nop())
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewClient(config.GeminiConfig{APIKey: "   ", BaseURL: srv.URL, Model: testModel}, nil, zerolog.Nop())
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	assert.Equal(t, 0, fake.calls())
}

func TestComputeFitnessAge(t *testing.T) {
	fake := &fakeGemini{text: fitnessAgeJSON}
	client, _ := newTestClient(t, fake)

	result, err := client.ComputeFitnessAge(context.Background(), sampleFitnessProfile())
	require.NoError(t, err)

	assert.Equal(t, 31, result.FitnessAge)
	assert.GreaterOrEqual(t, result.FitnessAge, 0)
	assert.NotEmpty(t, result.Disclaimer)
	assert.NotEmpty(t, result.Strengths)
	assert.NotEmpty(t, result.AreasForImprovement)
	assert.InDelta(t, 42.5, result.VO2MaxEstimate, 0.0001)

	require.Equal(t, 1, fake.calls())
	assert.Equal(t, "/v1beta/models/"+testModel+":generateContent", fake.paths[0])
	assert.Equal(t, "test-key", fake.headers[0].Get("x-goog-api-key"))

	req := fake.requests[0]
	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
	require.NotNil(t, req.GenerationConfig.ResponseSchema)
	assert.Equal(t, TypeObject, req.GenerationConfig.ResponseSchema.Type)
	assert.ElementsMatch(t, FitnessAgeSchema.Required, req.GenerationConfig.ResponseSchema.Required)

	prompt := fake.lastPrompt(t)
	assert.Contains(t, prompt, "- Age: 35")
	assert.Contains(t, prompt, "- Gender: Male")
	assert.Contains(t, prompt, "- Resting Heart Rate: 65 bpm")
	assert.Contains(t, prompt, "- Height: 180 cm")
	assert.Contains(t, prompt, "- Waist Circumference: 85 cm")
	assert.Contains(t, prompt, "- Weekly Cardio: 150 minutes")
	assert.Contains(t, prompt, "- Weekly Strength Sessions: 2 sessions")
	assert.Contains(t, prompt, FitnessDisclaimer)
}

func TestComputeFitnessAgeNotJSON(t *testing.T) {
	fake := &fakeGemini{text: "not json"}
	client, logs := newTestClient(t, fake)

	result, err := client.ComputeFitnessAge(context.Background(), sampleFitnessProfile())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "not json", decodeErr.Raw)
	assert.Equal(t, "FitnessAge", decodeErr.Operation)

	assert.Contains(t, logs.String(), `"raw_response":"not json"`)
	assert.Contains(t, logs.String(), "Failed to parse AI response")
}

func TestComputeFitnessAgeRejectsPartialResults(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
	}{
		{
			name: "missing disclaimer",
			body: `{"fitnessAge":30,"analysis":"a","strengths":["s"],"areasForImprovement":["i"],"vo2MaxEstimate":40}`,
			path: "$.disclaimer",
		},
		{
			name: "empty strengths",
			body: `{"fitnessAge":30,"analysis":"a","strengths":[],"areasForImprovement":["i"],"vo2MaxEstimate":40,"disclaimer":"d"}`,
			path: "$.strengths",
		},
		{
			name: "fractional fitness age",
			body: `{"fitnessAge":30.5,"analysis":"a","strengths":["s"],"areasForImprovement":["i"],"vo2MaxEstimate":40,"disclaimer":"d"}`,
			path: "$.fitnessAge",
		},
		{
			name: "negative fitness age",
			body: `{"fitnessAge":-2,"analysis":"a","strengths":["s"],"areasForImprovement":["i"],"vo2MaxEstimate":40,"disclaimer":"d"}`,
			path: "$.fitnessAge",
		},
		{
			name: "empty disclaimer",
			body: `{"fitnessAge":30,"analysis":"a","strengths":["s"],"areasForImprovement":["i"],"vo2MaxEstimate":40,"disclaimer":""}`,
			path: "$.disclaimer",
		},
		{
			name: "blank strength",
			body: `{"fitnessAge":30,"analysis":"a","strengths":[""],"areasForImprovement":["i"],"vo2MaxEstimate":40,"disclaimer":"d"}`,
			path: "$.strengths[0]",
		},
		{
			name: "empty analysis",
			body: `{"fitnessAge":30,"analysis":"","strengths":["s"],"areasForImprovement":["i"],"vo2MaxEstimate":40,"disclaimer":"d"}`,
			path: "$.analysis",
		},
		{
			name: "wrong type",
			body: `{"fitnessAge":30,"analysis":"a","strengths":"s","areasForImprovement":["i"],"vo2MaxEstimate":40,"disclaimer":"d"}`,
			path: "$.strengths",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, &fakeGemini{text: tt.body})

			result, err := client.ComputeFitnessAge(context.Background(), sampleFitnessProfile())
			assert.Nil(t, result)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			require.NotEmpty(t, decodeErr.Violations)
			assert.Equal(t, tt.path, decodeErr.Violations[0].Path)
			assert.Equal(t, tt.body, decodeErr.Raw)
		})
	}
}

func TestComputeFitnessAgeInvalidInput(t *testing.T) {
	fake := &fakeGemini{text: fitnessAgeJSON}
	client, _ := newTestClient(t, fake)

	profile := sampleFitnessProfile()
	profile.Age = -1

	_, err := client.ComputeFitnessAge(context.Background(), profile)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, fake.calls())
}

func TestTransportErrorNoRetry(t *testing.T) {
	fake := &fakeGemini{status: http.StatusServiceUnavailable, raw: `{"error":{"message":"overloaded"}}`}
	client, _ := newTestClient(t, fake)

	_, err := client.ComputeFitnessAge(context.Background(), sampleFitnessProfile())

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusServiceUnavailable, tErr.StatusCode)
	assert.Contains(t, tErr.Body, "overloaded")
	assert.False(t, errors.Is(err, ErrInvalidResponse))
	assert.Equal(t, 1, fake.calls())
}

func TestTransportErrorNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := NewClient(config.GeminiConfig{APIKey: "k", BaseURL: baseURL, Model: testModel, Timeout: time.Second}, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.LookupScannedProduct(context.Background())
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, 0, tErr.StatusCode)
	assert.Error(t, tErr.Err)
}

func TestTransportErrorEnvelope(t *testing.T) {
	tests := map[string]string{
		"no candidates":  `{"candidates":[]}`,
		"blocked prompt": `{"promptFeedback":{"blockReason":"SAFETY"}}`,
		"not an envelope": `<html>oops</html>`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, &fakeGemini{raw: raw})

			_, err := client.LookupScannedProduct(context.Background())
			var tErr *TransportError
			require.ErrorAs(t, err, &tErr)
			assert.Equal(t, http.StatusOK, tErr.StatusCode)
		})
	}
}

func sampleUserProfile() models.UserProfile {
	return models.UserProfile{
		Name:          "Alex",
		Age:           29,
		Weight:        72.5,
		Height:        176,
		Gender:        models.GenderFemale,
		ActivityLevel: models.ActivityModerate,
		Goal:          models.GoalMaintainWeight,
		Allergies:     "peanuts",
	}
}

// Totals deliberately do not add up; the client must not fix them.
const mealPlanJSON = `{
  "day": "Monday",
  "totalMacros": {"calories": 1000, "protein": 10, "carbs": 20, "fat": 30},
  "meals": [
    {
      "type": "Breakfast",
      "name": "Greek Yogurt Bowl",
      "macros": {"calories": 400, "protein": 30, "carbs": 45, "fat": 10},
      "ingredients": ["1 cup greek yogurt", "1/2 cup berries"],
      "instructions": "Combine and serve."
    },
    {
      "type": "Snack",
      "name": "Apple",
      "macros": {"calories": 95, "protein": 0, "carbs": 25, "fat": 0},
      "ingredients": ["1 apple"],
      "instructions": "Wash and eat."
    }
  ]
}`

func TestGenerateMealPlanPassThrough(t *testing.T) {
	fake := &fakeGemini{text: "\n  " + mealPlanJSON + "\n"}
	client, _ := newTestClient(t, fake)

	plan, err := client.GenerateMealPlan(context.Background(), sampleUserProfile())
	require.NoError(t, err)

	expected := models.MealPlan{
		Day:         "Monday",
		TotalMacros: models.Macros{Calories: 1000, Protein: 10, Carbs: 20, Fat: 30},
		Meals: []models.Meal{
			{
				Type:         models.MealBreakfast,
				Name:         "Greek Yogurt Bowl",
				Macros:       models.Macros{Calories: 400, Protein: 30, Carbs: 45, Fat: 10},
				Ingredients:  []string{"1 cup greek yogurt", "1/2 cup berries"},
				Instructions: "Combine and serve.",
			},
			{
				Type:         models.MealSnack,
				Name:         "Apple",
				Macros:       models.Macros{Calories: 95, Protein: 0, Carbs: 25, Fat: 0},
				Ingredients:  []string{"1 apple"},
				Instructions: "Wash and eat.",
			},
		},
	}
	assert.Equal(t, expected, *plan)

	prompt := fake.lastPrompt(t)
	assert.Contains(t, prompt, "- Name: Alex")
	assert.Contains(t, prompt, "- Weight: 72.5 kg")
	assert.Contains(t, prompt, "- Activity Level: Moderate")
	assert.Contains(t, prompt, "- Primary Goal: Maintain Weight")
	assert.Contains(t, prompt, "- Dietary Preferences: None")
	assert.Contains(t, prompt, "- Allergies or Dislikes: peanuts")
}

func TestGenerateMealPlanRejectsUnknownMealType(t *testing.T) {
	body := `{"day":"Monday","totalMacros":{"calories":1,"protein":1,"carbs":1,"fat":1},
		"meals":[{"type":"Brunch","name":"x","macros":{"calories":1,"protein":1,"carbs":1,"fat":1},"ingredients":[],"instructions":"y"}]}`
	client, _ := newTestClient(t, &fakeGemini{text: body})

	_, err := client.GenerateMealPlan(context.Background(), sampleUserProfile())

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Len(t, decodeErr.Violations, 1)
	assert.Equal(t, "$.meals[0].type", decodeErr.Violations[0].Path)
}

func TestGenerateMealPlanDropsModelRatings(t *testing.T) {
	body := `{"day":"Monday","totalMacros":{"calories":1,"protein":1,"carbs":1,"fat":1},
		"meals":[{"type":"Lunch","name":"Soup","macros":{"calories":1,"protein":1,"carbs":1,"fat":1},"ingredients":["broth"],"instructions":"Heat.","rating":9}]}`
	client, _ := newTestClient(t, &fakeGemini{text: body})

	plan, err := client.GenerateMealPlan(context.Background(), sampleUserProfile())
	require.NoError(t, err)
	require.Len(t, plan.Meals, 1)
	assert.Equal(t, "Soup", plan.Meals[0].Name)
	assert.Nil(t, plan.Meals[0].Rating)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	// "é" is two bytes; cutting at 2 would split it
	assert.Equal(t, "h...", truncate("héllo", 2))
	assert.Equal(t, "...", truncate("日本", 2))

	long := strings.Repeat("ü", maxErrorBodyBytes)
	assert.True(t, utf8.ValidString(truncate(long, maxErrorBodyBytes+1)))
}

func TestGenerateGroceryListNoMemoization(t *testing.T) {
	markdown := "### Produce\n* 1 apple\n* 1/2 cup berries\n\n### Dairy & Alternatives\n* 1 cup greek yogurt\n"
	fake := &fakeGemini{text: markdown}
	client, _ := newTestClient(t, fake)

	var plan models.MealPlan
	require.NoError(t, json.Unmarshal([]byte(mealPlanJSON), &plan))

	first, err := client.GenerateGroceryList(context.Background(), plan)
	require.NoError(t, err)
	second, err := client.GenerateGroceryList(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, markdown, first)
	assert.Equal(t, markdown, second)
	assert.Equal(t, 2, fake.calls())

	// free-text request: no schema, no JSON mime type
	assert.Nil(t, fake.requests[0].GenerationConfig)

	prompt := fake.lastPrompt(t)
	assert.Contains(t, prompt, `"name": "Greek Yogurt Bowl"`)
	assert.Contains(t, prompt, "### Produce")
}

func TestAnalyzeRecipe(t *testing.T) {
	body := `{"recipeName":"Chicken Tikka Masala","servingSize":"1.5 cups",
		"macrosPerServing":{"calories":520,"protein":38,"carbs":30,"fat":26},
		"ingredients":["chicken thighs","yogurt","tomato puree"]}`
	fake := &fakeGemini{text: body}
	client, _ := newTestClient(t, fake)

	recipe, err := client.AnalyzeRecipe(context.Background(), " https://example.com/recipes/tikka-masala ")
	require.NoError(t, err)

	assert.Equal(t, models.AnalyzedRecipe{
		RecipeName:       "Chicken Tikka Masala",
		ServingSize:      "1.5 cups",
		MacrosPerServing: models.Macros{Calories: 520, Protein: 38, Carbs: 30, Fat: 26},
		Ingredients:      []string{"chicken thighs", "yogurt", "tomato puree"},
	}, *recipe)
	assert.Contains(t, fake.lastPrompt(t), "Recipe URL: https://example.com/recipes/tikka-masala")
}

func TestAnalyzeRecipeInvalidURL(t *testing.T) {
	fake := &fakeGemini{}
	client, _ := newTestClient(t, fake)

	for _, raw := range []string{"", "tikka masala", "ftp://example.com/x", "https://"} {
		_, err := client.AnalyzeRecipe(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}
	assert.Equal(t, 0, fake.calls())
}

func TestLookupScannedProduct(t *testing.T) {
	body := `{"productName":"Greek Yogurt, Plain","servingSize":"170 g","servingsPerContainer":4.5,
		"macrosPerServing":{"calories":100,"protein":17,"carbs":6,"fat":0},
		"ingredients":["cultured pasteurized nonfat milk"]}`
	fake := &fakeGemini{text: body}
	client, _ := newTestClient(t, fake)

	product, err := client.LookupScannedProduct(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Greek Yogurt, Plain", product.ProductName)
	assert.InDelta(t, 4.5, product.ServingsPerContainer, 0.0001)
	assert.Equal(t, 17, product.MacrosPerServing.Protein)
	assert.Equal(t, ScannedProductPrompt, fake.lastPrompt(t))
}
