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

	"github.com/craftdeck/craftdeck/pkg/mcping"
	"github.com/craftdeck/craftdeck/pkg/models"
)

// PanelClient is the slice of the panel API the aggregation cycle needs.
type PanelClient interface {
	ListServers(ctx context.Context) ([]models.PanelServer, error)
	ServerState(ctx context.Context, uuid string) (string, error)
	GetEgg(ctx context.Context, eggID int) (*models.Egg, error)
}

// EggFetcher is the capability-detail lookup used by the egg resolver.
type EggFetcher interface {
	GetEgg(ctx context.Context, eggID int) (*models.Egg, error)
}

// Prober performs the direct game-protocol status query.
type Prober interface {
	Ping(ctx context.Context, host string, port int) (*mcping.Status, error)
}
