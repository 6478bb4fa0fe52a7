package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrMealNotFound  = errors.New("meal not found in plan")
)

const (
	MinRating = 1
	MaxRating = 5
)

/* =================================================================================
								ENUMS
=================================================================================*/

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "Sedentary"
	ActivityLight      ActivityLevel = "Light"
	ActivityModerate   ActivityLevel = "Moderate"
	ActivityActive     ActivityLevel = "Active"
	ActivityVeryActive ActivityLevel = "Very Active"
)

var ActivityLevels = []string{
	string(ActivitySedentary),
	string(ActivityLight),
	string(ActivityModerate),
	string(ActivityActive),
	string(ActivityVeryActive),
}

func (a ActivityLevel) Valid() bool { return contains(ActivityLevels, string(a)) }

type Goal string

const (
	GoalLoseWeight     Goal = "Lose Weight"
	GoalMaintainWeight Goal = "Maintain Weight"
	GoalGainMuscle     Goal = "Gain Muscle"
)

var Goals = []string{string(GoalLoseWeight), string(GoalMaintainWeight), string(GoalGainMuscle)}

func (g Goal) Valid() bool { return contains(Goals, string(g)) }

type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealLunch     MealType = "Lunch"
	MealDinner    MealType = "Dinner"
	MealSnack     MealType = "Snack"
)

var MealTypes = []string{string(MealBreakfast), string(MealLunch), string(MealDinner), string(MealSnack)}

/* =================================================================================
								MEAL PLANNER
=================================================================================*/

// UserProfile drives meal plan generation.
type UserProfile struct {
	Name          string        `json:"name"`
	Age           int           `json:"age"`
	Weight        float64       `json:"weight"` // kg
	Height        float64       `json:"height"` // cm
	Gender        Gender        `json:"gender"`
	ActivityLevel ActivityLevel `json:"activityLevel"`
	Goal          Goal          `json:"goal"`
	Preferences   string        `json:"preferences"` // e.g. vegan, gluten-free
	Allergies     string        `json:"allergies"`   // e.g. peanuts, shellfish
}

func (p UserProfile) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(p.Name) == "" {
		v.add("name", "is required")
	}
	v.nonNegative("age", float64(p.Age))
	v.nonNegative("weight", p.Weight)
	v.nonNegative("height", p.Height)
	if !p.Gender.Valid() {
		v.add("gender", fmt.Sprintf("must be one of %s", strings.Join(Genders, ", ")))
	}
	if !p.ActivityLevel.Valid() {
		v.add("activityLevel", fmt.Sprintf("must be one of %s", strings.Join(ActivityLevels, ", ")))
	}
	if !p.Goal.Valid() {
		v.add("goal", fmt.Sprintf("must be one of %s", strings.Join(Goals, ", ")))
	}
	return v.orNil()
}

// Macros are per serving (or per day for plan totals), grams except calories.
type Macros struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

type Meal struct {
	Type         MealType `json:"type"`
	Name         string   `json:"name"`
	Macros       Macros   `json:"macros"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`

	// Rating is set by the visitor after generation, never by Gemini.
	Rating *int `json:"rating,omitempty"`
}

// WithRating returns a copy of m carrying the given star rating.
func (m Meal) WithRating(rating int) (Meal, error) {
	if rating < MinRating || rating > MaxRating {
		return Meal{}, ErrInvalidRating
	}
	r := rating
	m.Rating = &r
	return m, nil
}

type MealPlan struct {
	Day         string `json:"day"`
	TotalMacros Macros `json:"totalMacros"`
	Meals       []Meal `json:"meals"`
}

// WithMealRating returns a new plan where the meal called name is rated.
// The receiver and its meal slice are left untouched.
func (p MealPlan) WithMealRating(name string, rating int) (MealPlan, error) {
	if rating < MinRating || rating > MaxRating {
		return MealPlan{}, ErrInvalidRating
	}

	meals := make([]Meal, len(p.Meals))
	copy(meals, p.Meals)

	found := false
	for i, m := range meals {
		if m.Name != name {
			continue
		}
		rated, err := m.WithRating(rating)
		if err != nil {
			return MealPlan{}, err
		}
		meals[i] = rated
		found = true
	}
	if !found {
		return MealPlan{}, fmt.Errorf("%w: %q", ErrMealNotFound, name)
	}

	p.Meals = meals
	return p, nil
}

/* =================================================================================
							RECIPE & BARCODE ANALYZER
=================================================================================*/

type AnalyzedRecipe struct {
	RecipeName       string   `json:"recipeName"`
	ServingSize      string   `json:"servingSize"`
	MacrosPerServing Macros   `json:"macrosPerServing"`
	Ingredients      []string `json:"ingredients"`
}

type ScannedProduct struct {
	ProductName          string   `json:"productName"`
	ServingSize          string   `json:"servingSize"`
	ServingsPerContainer float64  `json:"servingsPerContainer"`
	MacrosPerServing     Macros   `json:"macrosPerServing"`
	Ingredients          []string `json:"ingredients"`
}
