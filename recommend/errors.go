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


package recommend

import "errors"

var (
	// ErrLinkRepositoryRequired is returned when a link repository is not provided.
	ErrLinkRepositoryRequired = errors.New("link repository required")

	// ErrEmbeddingRepositoryRequired is returned when an embedding repository is not provided.
	ErrEmbeddingRepositoryRequired = errors.New("embedding repository required")

	// ErrNotReady is returned when recommendations are requested for a link
	// that has not finished processing.
	ErrNotReady = errors.New("link not ready for recommendations")

	// ErrNoCompletedLinks is returned when an interest profile is requested
	// but no links have completed processing yet.
	ErrNoCompletedLinks = errors.New("no completed links")
)
