/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package aggregator

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/craftdeck/craftdeck/pkg/logger"
	"github.com/craftdeck/craftdeck/pkg/models"
)

// minecraftKeyword drives egg classification. An egg whose name or
// description contains it (case-insensitive), or whose tag list carries it
// verbatim, marks its servers as probe-eligible.
const minecraftKeyword = "minecraft"

// EggResolver resolves capability records for a set of egg ids. Each
// Resolve call builds a fresh cycle-scoped cache; resolvers are cheap and
// a new one per cycle avoids stale capability data leaking across cycles.
type EggResolver struct {
	fetcher EggFetcher
	logger  logger.Logger
}

func NewEggResolver(fetcher EggFetcher, log logger.Logger) *EggResolver {
	return &EggResolver{fetcher: fetcher, logger: log}
}

// Resolve fetches every distinct egg id concurrently and returns the
// id→egg map. A failed lookup is logged at warning level and left out of
// the map; it never fails the batch. Ids are deduplicated, so N servers
// sharing one egg cost exactly one lookup.
func (r *EggResolver) Resolve(ctx context.Context, eggIDs []int) map[int]*models.Egg {
	distinct := make(map[int]struct{}, len(eggIDs))
	for _, id := range eggIDs {
		if id > 0 {
			distinct[id] = struct{}{}
		}
	}

	eggs := make(map[int]*models.Egg, len(distinct))

	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)

	for id := range distinct {
		id := id
		group.Go(func() error {
			egg, err := r.fetcher.GetEgg(groupCtx, id)
			if err != nil {
				r.logger.Warn().Err(err).Int("egg_id", id).Msg("Failed to resolve egg, servers proceed without capability data")
				return nil
			}

			mu.Lock()
			eggs[id] = egg
			mu.Unlock()

			return nil
		})
	}

	// workers never return errors; Wait only joins them
	_ = group.Wait()

	return eggs
}

// IsMinecraftEgg reports whether an egg represents a probe-eligible
// Minecraft server type.
func IsMinecraftEgg(egg *models.Egg) bool {
	if egg == nil {
		return false
	}

	if strings.Contains(strings.ToLower(egg.Name), minecraftKeyword) ||
		strings.Contains(strings.ToLower(egg.Description), minecraftKeyword) {
		return true
	}

	for _, tag := range egg.Tags {
		if tag == minecraftKeyword {
			return true
		}
	}

	return false
}
