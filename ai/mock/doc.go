// Package mock provides test doubles for the ai package interfaces.
//
// The mocks support two modes of use: the zero-value defaults produce
// deterministic output (fixed summaries, hash-seeded embedding vectors),
// while the exported function fields let tests inject arbitrary behavior
// including typed failures.
package mock
