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

import (
	"context"
	"time"

	"github.com/poiesic/linkmind/core"
)

// profileWindow is how many recent completed links feed the interest vector.
const profileWindow = 50

// decayPerDay controls how quickly older links lose influence on the
// interest vector. A link's weight is 1 / (1 + decayPerDay * ageDays), so
// a ten-day-old link counts half as much as one saved today.
const decayPerDay = 0.1

// InterestVector computes a time-decayed weighted average of the
// embeddings of recently completed links. Recent saves dominate, so the
// vector tracks what the reader cares about now rather than everything
// they ever saved.
//
// Returns ErrNoCompletedLinks when nothing has completed yet.
func (e *Engine) InterestVector(ctx context.Context) ([]float32, error) {
	links, err := e.linkRepository.GetRecentCompleted(ctx, profileWindow)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNoCompletedLinks
	}

	now := time.Now().UTC()
	var profile []float64
	var totalWeight float64

	for _, link := range links {
		embedding, err := e.embeddingRepository.Get(ctx, link.Id)
		if err != nil {
			// Completed links always have embeddings; a miss here means
			// the stores are inconsistent, which is worth surfacing.
			return nil, err
		}

		ageDays := now.Sub(link.UpdatedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		weight := 1.0 / (1.0 + decayPerDay*ageDays)

		if profile == nil {
			profile = make([]float64, len(embedding.Vector))
		}
		if len(embedding.Vector) != len(profile) {
			// Mixed embedding dimensions, skip rather than corrupt the average.
			e.logger.Warn("skipping embedding with mismatched dimensions",
				"link_id", link.Id,
				"got", len(embedding.Vector),
				"want", len(profile))
			continue
		}

		for i, component := range embedding.Vector {
			profile[i] += weight * float64(component)
		}
		totalWeight += weight
	}

	if totalWeight == 0 {
		return nil, ErrNoCompletedLinks
	}

	vector := make([]float32, len(profile))
	for i, component := range profile {
		vector[i] = float32(component / totalWeight)
	}
	return vector, nil
}

// RecommendForInterest returns up to k links closest to the reader's
// current interest vector, closest first.
func (e *Engine) RecommendForInterest(ctx context.Context, k int) ([]core.Recommendation, error) {
	if k <= 0 {
		k = defaultK
	}

	profile, err := e.InterestVector(ctx)
	if err != nil {
		return nil, err
	}

	return e.embeddingRepository.Query(ctx, profile, k, 0)
}
