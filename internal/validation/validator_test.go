// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type adviseLike struct {
	Name     string `json:"name" validate:"max=60"`
	Location string `json:"location" validate:"notblank,max=100"`
	Crop     string `json:"crop" validate:"notblank,max=50"`
	TopN     *int   `json:"top_n" validate:"omitempty,min=0,max=50"`
	Language string `json:"language" validate:"omitempty,oneof=en sw local both"`
}

type pointLike struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Price float64 `json:"price" validate:"gte=0"`
}

type seriesLike struct {
	Series     []pointLike `json:"series" validate:"min=1,max=366,dive"`
	TopPercent float64     `json:"top_percent" validate:"omitempty,gt=0,lte=1"`
}

func intPtr(v int) *int { return &v }

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"minimal advise", &adviseLike{Location: "Kakamega", Crop: "maize"}},
		{"full advise", &adviseLike{Name: "Wanjiru", Location: "Nakuru", Crop: "beans", TopN: intPtr(5), Language: "sw"}},
		{"zero top_n", &adviseLike{Location: "Kisumu", Crop: "maize", TopN: intPtr(0)}},
		{"series", &seriesLike{Series: []pointLike{{Date: "2024-01-01", Price: 50}}, TopPercent: 0.15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{"blank location", &adviseLike{Location: "   ", Crop: "maize"}, "location", "notblank"},
		{"missing crop", &adviseLike{Location: "Kakamega"}, "crop", "notblank"},
		{"top_n too large", &adviseLike{Location: "Kakamega", Crop: "maize", TopN: intPtr(51)}, "top_n", "max"},
		{"negative top_n", &adviseLike{Location: "Kakamega", Crop: "maize", TopN: intPtr(-1)}, "top_n", "min"},
		{"bad language", &adviseLike{Location: "Kakamega", Crop: "maize", Language: "fr"}, "language", "oneof"},
		{"empty series", &seriesLike{}, "series", "min"},
		{"bad date", &seriesLike{Series: []pointLike{{Date: "01/02/2024", Price: 1}}}, "date", "datetime"},
		{"negative price", &seriesLike{Series: []pointLike{{Date: "2024-01-02", Price: -1}}}, "price", "gte"},
		{"top_percent above one", &seriesLike{Series: []pointLike{{Date: "2024-01-02", Price: 1}}, TopPercent: 1.5}, "top_percent", "lte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) == 0 {
				t.Fatal("Errors() is empty")
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	verr := ValidateStruct(&adviseLike{Location: "Kakamega", Crop: " "})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "crop must not be blank" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "crop" {
		t.Errorf("Details[field] = %v, want crop", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	verr := ValidateStruct(&adviseLike{})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if !strings.Contains(apiErr.Message, "location:") || !strings.Contains(apiErr.Message, "crop:") {
		t.Errorf("Message = %q, want both fields", apiErr.Message)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("Details[fields] = %v, want two entries", apiErr.Details["fields"])
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"string max", &adviseLike{Location: strings.Repeat("x", 101), Crop: "maize"}, "location must be at most 100 characters"},
		{"numeric max", &adviseLike{Location: "a", Crop: "maize", TopN: intPtr(99)}, "top_n must be at most 50"},
		{"slice min", &seriesLike{}, "series must contain at least 1 items"},
		{"oneof", &adviseLike{Location: "a", Crop: "b", Language: "xx"}, "language must be one of: en sw local both"},
		{"datetime", &seriesLike{Series: []pointLike{{Date: "x"}}}, "date must be a date in 2006-01-02 format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if got := verr.Errors()[0].Error(); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}
