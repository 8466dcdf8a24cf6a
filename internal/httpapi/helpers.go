// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package httpapi

import "time"

// parseTimestamp parses s as RFC3339. An empty s is passed through as the
// zero time so Event.Validate's "required" check reports it as a missing
// field rather than this helper silently defaulting it to now.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
