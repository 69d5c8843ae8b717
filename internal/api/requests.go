// Kindred - Similar Items Aggregation for Home Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kindred

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/kindred/internal/validation"
)

// similarItemsRequest carries the validated query parameters of the
// similar-items endpoint. Limit zero means the engine's configured
// default; the engine also caps requested limits at its own ceiling.
type similarItemsRequest struct {
	Limit  int      `validate:"omitempty,min=1,max=1000"`
	Fields []string `validate:"omitempty,dive,oneof=library_id year genres tags provider_ids artist_ids"`
}

// validateRequest validates a request struct and translates failures to
// the API error shape.
func validateRequest(v interface{}) *validation.APIError {
	if err := validation.ValidateStruct(v); err != nil {
		return err.ToAPIError()
	}
	return nil
}

// getIntParam extracts an integer query parameter with a default value.
// Non-numeric values fall back to the default; range checks are the
// request struct's job.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// parseCommaSeparated splits a comma-separated parameter into trimmed,
// lower-cased values, dropping empties. Returns nil for an empty input.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
