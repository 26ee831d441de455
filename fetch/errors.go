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


package fetch

import "errors"

var (
	// ErrContentUnavailable indicates the page cannot be retrieved and
	// never will be (404, 410, 403 and similar client-side failures).
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrRateLimited indicates the remote site asked us to slow down.
	ErrRateLimited = errors.New("rate limited by remote site")

	// ErrServerError indicates a transient server-side failure (5xx).
	ErrServerError = errors.New("remote server error")

	// ErrNetwork indicates a transport-level failure (DNS, connection
	// refused, timeout).
	ErrNetwork = errors.New("network error")

	// ErrEmptyContent indicates the page fetched fine but yielded no
	// extractable text.
	ErrEmptyContent = errors.New("no extractable content")
)

// IsRetryable determines whether a fetch error may succeed on retry.
// Client-side failures are permanent; rate limits, server errors and
// network faults are worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContentUnavailable) || errors.Is(err, ErrEmptyContent) {
		return false
	}
	return true
}
