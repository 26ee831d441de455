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


// Package ai provides abstractions for the AI services used in linkmind.
//
// This package defines interfaces for summarization and text embeddings.
// It follows the dependency inversion principle, allowing the core domain
// and business logic to depend on abstractions rather than concrete
// implementations.
//
// The package is designed around three key interfaces:
//
//   - Summarizer: condenses article text into a summary with tags
//   - Embedder: generates vector embeddings from text
//   - Provider: aggregates AI services for convenient initialization
//
// Two implementation sub-packages exist:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Failures returned by Summarizer implementations are classified with the
// sentinel errors in this package; IsRetryable separates transient failures
// (rate limits, timeouts, outages) from permanent ones (invalid content).
// The ingestion pipeline relies on that classification to drive its retry
// state machine.
//
// Public constructors (openai.NewProvider, etc.) return interface types to
// enforce abstraction. Mock constructors return concrete types to enable
// behavior injection and call-count assertions in tests.
package ai
