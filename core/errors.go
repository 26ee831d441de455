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

import "errors"

// Domain validation errors
var (
	// ErrInvalidLink indicates a Link failed validation.
	ErrInvalidLink = errors.New("invalid link")

	// ErrInvalidURL indicates the submitted URL is not an absolute http(s) URI.
	ErrInvalidURL = errors.New("url must be an absolute http or https URI")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrInvalidStatus indicates an invalid LinkStatus value.
	ErrInvalidStatus = errors.New("invalid link status")

	// ErrEmptySummary indicates a Done link without a summary.
	ErrEmptySummary = errors.New("summary cannot be empty for a completed link")
)
