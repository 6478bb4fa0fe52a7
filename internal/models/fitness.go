/*
Package models holds the value records exchanged between the HTTP layer
and the Gemini inference client. Field names mirror the JSON schemas sent
to Gemini so decoding never renames anything.
*/
package models

import (
	"fmt"
	"strings"
)

/* =================================================================================
								ENUMS
=================================================================================*/

// Gender is shared by the fitness and nutrition profiles.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists the accepted values in schema order.
var Genders = []string{string(GenderMale), string(GenderFemale), string(GenderOther)}

// Valid reports whether g is one of the accepted literals.
func (g Gender) Valid() bool {
	return contains(Genders, string(g))
}

/* =================================================================================
							FITNESS AGE CALCULATOR
=================================================================================*/

// FitnessProfile is the input of the fitness age calculator.
type FitnessProfile struct {
	Age              int     `json:"age"`
	Gender           Gender  `json:"gender"`
	RestingHeartRate int     `json:"restingHeartRate"` // bpm
	Height           float64 `json:"height"`           // cm
	Weight           float64 `json:"weight"`           // kg
	Waist            float64 `json:"waist"`            // cm
	CardioMinutes    int     `json:"cardioMinutes"`    // per week
	StrengthSessions int     `json:"strengthSessions"` // per week
}

// Validate checks that every numeric field is non-negative and the gender is known.
func (p FitnessProfile) Validate() error {
	v := &ValidationError{}
	v.nonNegative("age", float64(p.Age))
	v.nonNegative("restingHeartRate", float64(p.RestingHeartRate))
	v.nonNegative("height", p.Height)
	v.nonNegative("weight", p.Weight)
	v.nonNegative("waist", p.Waist)
	v.nonNegative("cardioMinutes", float64(p.CardioMinutes))
	v.nonNegative("strengthSessions", float64(p.StrengthSessions))
	if !p.Gender.Valid() {
		v.add("gender", fmt.Sprintf("must be one of %s", strings.Join(Genders, ", ")))
	}
	return v.orNil()
}

// FitnessAgeResult is produced only by the inference client and never mutated.
type FitnessAgeResult struct {
	FitnessAge          int      `json:"fitnessAge"`
	Analysis            string   `json:"analysis"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	VO2MaxEstimate      float64  `json:"vo2MaxEstimate"`
	Disclaimer          string   `json:"disclaimer"`
}

/* =================================================================================
								VALIDATION
=================================================================================*/

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field of an input record.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) nonNegative(field string, value float64) {
	if value < 0 {
		e.add(field, "must be >= 0")
	}
}

// orNil keeps a typed nil pointer from escaping as a non-nil error.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
