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


package ai

import "errors"

// Typed summarization failures. Workers use IsRetryable to decide between
// re-queueing with backoff and failing a link permanently.
var (
	// ErrRateLimited indicates the service rejected the call due to rate limiting.
	ErrRateLimited = errors.New("summarization service rate limited")

	// ErrTimeout indicates the call exceeded its deadline.
	ErrTimeout = errors.New("summarization call timed out")

	// ErrInvalidContent indicates the content cannot be summarized and never
	// will be (empty article, persistently malformed model output).
	ErrInvalidContent = errors.New("content cannot be summarized")

	// ErrUnavailable indicates a transient service or network failure.
	ErrUnavailable = errors.New("summarization service unavailable")
)

// IsRetryable reports whether a summarization failure is transient.
// Rate limits, timeouts, and service outages clear up on their own;
// invalid content does not.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrUnavailable):
		return true
	case errors.Is(err, ErrInvalidContent):
		return false
	default:
		// Unclassified failures are treated as transient; MaxAttempts
		// still bounds how long we keep trying.
		return true
	}
}
