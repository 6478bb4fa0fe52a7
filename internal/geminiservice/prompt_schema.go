package geminiservice

import "GearUpToFit/internal/models"

/* =================================================================================
							GEMINI SCHEMA DEFINITION
	This is the core structure that tells Gemini how to format its JSON response.
	The same schema is used afterwards to validate what Gemini sent back.
=================================================================================*/

const (
	TypeObject  = "OBJECT"
	TypeArray   = "ARRAY"
	TypeString  = "STRING"
	TypeInteger = "INTEGER"
	TypeNumber  = "NUMBER"
	TypeBoolean = "BOOLEAN"
)

// GeminiSchema defines the structure for "Controlled Generation" (Structured Output).
type GeminiSchema struct {
	// Type defines the data type (e.g., "OBJECT", "ARRAY", "STRING", "INTEGER").
	Type string `json:"type"`

	// Format specifies data format, primarily used for "enum" validation.
	Format string `json:"format,omitempty"`

	// Description explains the field's purpose to the AI, helping it generate better content.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "OBJECT").
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// PropertyOrdering keeps Gemini's output in a stable, readable order.
	PropertyOrdering []string `json:"propertyOrdering,omitempty"`

	// Items defines the schema for elements within an array (used when Type is "ARRAY").
	Items *GeminiSchema `json:"items,omitempty"`

	// Required lists the field names that the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// Enum lists valid specific string values for fields with restricted options.
	Enum []string `json:"enum,omitempty"`

	// Minimum is the lowest accepted value for INTEGER and NUMBER fields.
	Minimum *float64 `json:"minimum,omitempty"`

	// MinItems is the smallest accepted length for ARRAY fields.
	MinItems *int64 `json:"minItems,omitempty"`

	// MinLength is the smallest accepted character count for STRING fields.
	MinLength *int64 `json:"minLength,omitempty"`
}

func minimum(v float64) *float64 { return &v }
func minItems(n int64) *int64    { return &n }
func minLength(n int64) *int64   { return &n }

// nonEmptyString is a STRING that must carry at least one character.
func nonEmptyString(description string) *GeminiSchema {
	return &GeminiSchema{Type: TypeString, Description: description, MinLength: minLength(1)}
}

func stringList(description string, atLeast int64) *GeminiSchema {
	s := &GeminiSchema{
		Type:        TypeArray,
		Description: description,
		Items:       &GeminiSchema{Type: TypeString},
	}
	// a list that must have entries must not have blank entries either
	if atLeast > 0 {
		s.MinItems = minItems(atLeast)
		s.Items.MinLength = minLength(1)
	}
	return s
}

func stringEnum(values []string) *GeminiSchema {
	return &GeminiSchema{Type: TypeString, Format: "enum", Enum: values}
}

// FitnessAgeSchema describes models.FitnessAgeResult.
var FitnessAgeSchema = &GeminiSchema{
	Type: TypeObject,
	Properties: map[string]*GeminiSchema{
		"fitnessAge": {
			Type:        TypeInteger,
			Description: "The user's calculated fitness age as an integer.",
			Minimum:     minimum(0),
		},
		"analysis":            nonEmptyString("A concise, one-paragraph analysis of the user's fitness age and what it means."),
		"strengths":           stringList("An array of 2-3 strings highlighting the user's positive health and fitness metrics.", 1),
		"areasForImprovement": stringList("An array of 2-3 strings providing actionable advice for areas where the user can improve.", 1),
		"vo2MaxEstimate": {
			Type:        TypeNumber,
			Description: "A reasonable estimate of the user's VO2 Max based on their provided data.",
			Minimum:     minimum(0),
		},
		"disclaimer": nonEmptyString("A standard disclaimer that this is an estimate and not a medical diagnosis."),
	},
	PropertyOrdering: []string{"fitnessAge", "analysis", "strengths", "areasForImprovement", "vo2MaxEstimate", "disclaimer"},
	Required:         []string{"fitnessAge", "analysis", "strengths", "areasForImprovement", "vo2MaxEstimate", "disclaimer"},
}

// macrosSchema returns a fresh copy so no two parents share a node.
func macrosSchema() *GeminiSchema {
	return &GeminiSchema{
		Type: TypeObject,
		Properties: map[string]*GeminiSchema{
			"calories": {Type: TypeInteger, Minimum: minimum(0)},
			"protein":  {Type: TypeInteger, Minimum: minimum(0)},
			"carbs":    {Type: TypeInteger, Minimum: minimum(0)},
			"fat":      {Type: TypeInteger, Minimum: minimum(0)},
		},
		PropertyOrdering: []string{"calories", "protein", "carbs", "fat"},
		Required:         []string{"calories", "protein", "carbs", "fat"},
	}
}

var mealSchema = &GeminiSchema{
	Type: TypeObject,
	Properties: map[string]*GeminiSchema{
		"type":         stringEnum(models.MealTypes),
		"name":         {Type: TypeString},
		"macros":       macrosSchema(),
		"ingredients":  stringList("", 0),
		"instructions": {Type: TypeString},
	},
	PropertyOrdering: []string{"type", "name", "macros", "ingredients", "instructions"},
	Required:         []string{"type", "name", "macros", "ingredients", "instructions"},
}

// MealPlanSchema describes models.MealPlan.
var MealPlanSchema = &GeminiSchema{
	Type: TypeObject,
	Properties: map[string]*GeminiSchema{
		"day":         {Type: TypeString, Description: "The day of the week, e.g., 'Monday'."},
		"totalMacros": macrosSchema(),
		"meals":       {Type: TypeArray, Items: mealSchema},
	},
	PropertyOrdering: []string{"day", "totalMacros", "meals"},
	Required:         []string{"day", "totalMacros", "meals"},
}

// AnalyzedRecipeSchema describes models.AnalyzedRecipe.
var AnalyzedRecipeSchema = &GeminiSchema{
	Type: TypeObject,
	Properties: map[string]*GeminiSchema{
		"recipeName":       {Type: TypeString},
		"servingSize":      {Type: TypeString},
		"macrosPerServing": macrosSchema(),
		"ingredients":      stringList("", 0),
	},
	PropertyOrdering: []string{"recipeName", "servingSize", "macrosPerServing", "ingredients"},
	Required:         []string{"recipeName", "servingSize", "macrosPerServing", "ingredients"},
}

// ScannedProductSchema describes models.ScannedProduct.
var ScannedProductSchema = &GeminiSchema{
	Type: TypeObject,
	Properties: map[string]*GeminiSchema{
		"productName":          {Type: TypeString},
		"servingSize":          {Type: TypeString},
		"servingsPerContainer": {Type: TypeNumber, Minimum: minimum(0)},
		"macrosPerServing":     macrosSchema(),
		"ingredients":          stringList("", 0),
	},
	PropertyOrdering: []string{"productName", "servingSize", "servingsPerContainer", "macrosPerServing", "ingredients"},
	Required:         []string{"productName", "servingSize", "servingsPerContainer", "macrosPerServing", "ingredients"},
}

/* =================================================================================
						PROMPT ENGINEERING & GUARDRAILS
	Templates are filled with fmt.Sprintf; argument order is fixed by the
	Build*Prompt helpers in logic.go.
=================================================================================*/

// FitnessDisclaimer is the sentence Gemini is told to always include.
const FitnessDisclaimer = "This is an estimate for informational purposes and is not a substitute for professional medical advice."

const FitnessAgePromptTemplate = `
You are a friendly and encouraging AI Health & Fitness expert named 'FitBot'.
Based on the following user data, calculate their 'Fitness Age' and provide a concise, positive, and actionable health audit.

User Data:
- Age: %v
- Gender: %s
- Resting Heart Rate: %v bpm
- Height: %v cm
- Weight: %v kg
- Waist Circumference: %v cm
- Weekly Cardio: %v minutes
- Weekly Strength Sessions: %v sessions

Your analysis should consider factors like BMI, waist-to-height ratio, resting heart rate against age-based norms, and adherence to recommended physical activity guidelines (e.g., 150 mins of moderate cardio).

**Fitness Age Calculation:**
- Start with the user's chronological age.
- Adjust downwards for positive factors (e.g., low resting heart rate, healthy BMI, meeting exercise goals).
- Adjust upwards for negative factors (e.g., high resting heart rate, high waist-to-height ratio, sedentary lifestyle).
- The final result should be a plausible integer.

**VO2 Max Estimation:**
- Provide a rough estimate of their VO2 Max based on their age, gender, and activity level.

**Response Format:**
Return a single, valid JSON object matching the provided schema. Do not include any text outside of the JSON object. Your tone must be motivating, not alarming. Frame "weaknesses" as "areas for improvement." Always include the disclaimer: "%s"
`

const MealPlanPromptTemplate = `
You are an expert nutritionist and chef AI called IntelliMacro. Create a one-day meal plan for the following user.

User Profile:
- Name: %s
- Age: %v
- Weight: %v kg
- Height: %v cm
- Gender: %s
- Activity Level: %s
- Primary Goal: %s
- Dietary Preferences: %s
- Allergies or Dislikes: %s

Instructions:
1. Calculate the user's estimated daily calorie and macronutrient needs based on their profile and goals (using Harris-Benedict or a similar formula).
2. Create a full day's meal plan (Breakfast, Lunch, Dinner, and one Snack).
3. The meals should be healthy, balanced, and delicious. Provide simple ingredients and clear instructions.
4. Ensure the total calories and macros for the day closely match the calculated needs.
5. Adhere strictly to the user's preferences and allergies.
6. Return the response as a single, valid JSON object matching the provided schema. Do not include any text outside the JSON object.
`

const GroceryListPromptTemplate = `
You are a helpful kitchen assistant AI. Based on the following meal plan JSON, create a simple, well-organized grocery list in Markdown format.

Meal Plan:
%s

Instructions:
1. Consolidate all ingredients from all meals into a single list.
2. Categorize the list by common grocery store sections (e.g., ### Produce, ### Protein, ### Dairy & Alternatives, ### Pantry, ### Spices).
3. Format each item as a markdown list item (e.g., "* 1 cup quinoa").
4. Return only the markdown text. Do not include any other commentary.
`

const RecipeAnalysisPromptTemplate = `
You are a recipe analysis AI. A user has provided a URL to a recipe. Your task is to extract the recipe's name, determine a reasonable serving size, list the key ingredients, and estimate the macronutrients (calories, protein, carbs, fat) per serving.

Recipe URL: %s

Instructions:
1. Act as if you have visited the URL. Based on the URL, infer the likely recipe.
2. Provide a nutritional analysis for that recipe.
3. Return the response as a single, valid JSON object matching the provided schema. Do not include any text outside the JSON object. If you cannot analyze the URL, create a plausible analysis for a typical recipe of that kind.
`

// ScannedProductPrompt takes no input; the barcode lookup is simulated.
const ScannedProductPrompt = `
You are a food database AI. For a simulation, generate a plausible nutritional profile for a common grocery item that a user might scan with a barcode scanner.

Instructions:
1. Invent a common, healthy-ish food product (e.g., "Organic Almond Butter", "Greek Yogurt, Plain", "Whole Wheat Bread").
2. Create a realistic nutrition label for it, including serving size, servings per container, macros, and ingredients.
3. Return the response as a single, valid JSON object matching the provided schema. Do not include any text outside the JSON object.
`
