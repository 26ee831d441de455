// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"net/url"
)

// ValidateURL validates that a string is an absolute http or https URI.
// This is the synchronous check performed at submission time; anything else
// about the target (reachability, content type) is a worker concern.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: %w", ErrInvalidURL, ErrEmptyURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

// ValidateLink validates a Link according to domain rules.
//
// Validation rules:
//   - URL must be an absolute http(s) URI
//   - Status must be a known value
//   - Summary must be non-empty iff Status is Done
//
// NOT validated (populated by storage and workers):
//   - ID (0 is valid before sequence assignment)
//   - Title, Tags, timestamps
func ValidateLink(link *Link) error {
	if link == nil {
		return fmt.Errorf("%w: link is nil", ErrInvalidLink)
	}

	if err := ValidateURL(link.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLink, err)
	}

	if err := ValidateStatus(link.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLink, err)
	}

	if link.Status == StatusDone && link.Summary == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLink, ErrEmptySummary)
	}

	if link.AttemptCount < 0 {
		return fmt.Errorf("%w: attempt count %d is negative", ErrInvalidLink, link.AttemptCount)
	}

	return nil
}

// ValidateStatus validates that a LinkStatus has a valid value.
func ValidateStatus(status LinkStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusDone, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}
