// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type updateRequest struct {
	Field string `json:"field" validate:"required,fieldtag"`
	Value string `json:"value" validate:"required,max=200"`
}

type galleryRequest struct {
	VideoURL string `json:"videoUrl" validate:"omitempty,embedurl"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantMsg   string
	}{
		{"valid update", updateRequest{Field: "NAME", Value: "Alpha"}, "", ""},
		{"unknown tag", updateRequest{Field: "COLOR", Value: "x"}, "field", "known settings field"},
		{"missing value", updateRequest{Field: "NAME"}, "value", "value is required"},
		{"too long", updateRequest{Field: "NAME", Value: strings.Repeat("a", 201)}, "value", "at most 200 characters"},
		{"empty video allowed", galleryRequest{}, "", ""},
		{"https video", galleryRequest{VideoURL: "https://www.youtube.com/embed/x"}, "", ""},
		{"http video rejected", galleryRequest{VideoURL: "http://www.youtube.com/embed/x"}, "videoUrl", "https URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			fe := err.Errors()[0]
			if fe.Field != tt.wantField {
				t.Errorf("field = %q, want %q", fe.Field, tt.wantField)
			}
			if !strings.Contains(fe.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", fe.Message, tt.wantMsg)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	t.Parallel()

	if err := ValidateVar("domain", "learn.example.com", "required,fqdn"); err != nil {
		t.Errorf("valid domain rejected: %v", err)
	}

	err := ValidateVar("domain", "not a domain", "required,fqdn")
	if err == nil {
		t.Fatal("expected error for invalid domain")
	}
	if got := err.Error(); got != "domain must be a fully qualified domain name" {
		t.Errorf("Error() = %q", got)
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(updateRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("Details[fields] = %#v", apiErr.Details["fields"])
	}
	if fields[0]["field"] != "field" || fields[1]["field"] != "value" {
		t.Errorf("unexpected field order: %v", fields)
	}
}
