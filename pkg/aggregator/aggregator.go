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

// Package aggregator reconciles the panel inventory, the per-server live
// state, and the direct game-protocol probe into one display-ready record
// per server. Only an inventory failure aborts a cycle; every other
// failure degrades the affected record and the cycle completes.
package aggregator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/craftdeck/craftdeck/pkg/logger"
	"github.com/craftdeck/craftdeck/pkg/mcping"
	"github.com/craftdeck/craftdeck/pkg/metadata"
	"github.com/craftdeck/craftdeck/pkg/models"
)

const (
	defaultStateTimeout = 5 * time.Second
	defaultProbeTimeout = mcping.DefaultTimeout
)

// Config bounds the per-server fetches of one cycle.
type Config struct {
	// StateTimeout caps each live-state call.
	StateTimeout models.Duration `json:"state_timeout,omitempty"`
	// ProbeTimeout caps each game-protocol query.
	ProbeTimeout models.Duration `json:"probe_timeout,omitempty"`
	// ProbePort overrides the protocol default port when a server's
	// container environment carries no port of its own.
	ProbePort int `json:"probe_port,omitempty"`
}

// Result is one completed aggregation cycle.
type Result struct {
	Servers   []models.Server `json:"servers"`
	Timestamp time.Time       `json:"timestamp"`
	CycleID   string          `json:"cycle_id"`
}

// Aggregator runs aggregation cycles. Cycles are serialized: a trigger
// arriving while one is in flight waits for it to finish rather than
// racing it.
type Aggregator struct {
	panel  PanelClient
	prober Prober
	config Config
	logger logger.Logger

	mu sync.Mutex
}

func New(panel PanelClient, prober Prober, config Config, log logger.Logger) *Aggregator {
	return &Aggregator{
		panel:  panel,
		prober: prober,
		config: config,
		logger: log,
	}
}

// candidate is one inventory entry that survived the visibility filter,
// carried through the fan-out stage.
type candidate struct {
	entry models.PanelServer
	meta  map[string]string
	egg   *models.Egg
}

// Run executes one aggregation cycle: fetch inventory, parse metadata,
// filter by visibility, resolve eggs once per distinct id, then fan out
// live-state and probe calls per server. On inventory failure the error
// is returned with no result; nothing downstream is attempted.
func (a *Aggregator) Run(ctx context.Context) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cycleID := uuid.NewString()
	started := time.Now()

	entries, err := a.panel.ListServers(ctx)
	if err != nil {
		a.logger.Error().Err(err).Str("cycle_id", cycleID).Msg("Inventory fetch failed, aborting cycle")
		return nil, err
	}

	candidates := a.filterVisible(entries)

	a.logger.Info().
		Str("cycle_id", cycleID).
		Int("inventory", len(entries)).
		Int("visible", len(candidates)).
		Msg("Starting aggregation cycle")

	eggs := a.resolveEggs(ctx, candidates)

	for i := range candidates {
		candidates[i].egg = eggs[candidates[i].entry.Egg]
	}

	servers := a.collectServers(ctx, candidates)

	// single-threaded assembly step: order is stable for the cycle
	sort.Slice(servers, func(i, j int) bool { return servers[i].ID < servers[j].ID })

	a.logger.Info().
		Str("cycle_id", cycleID).
		Int("servers", len(servers)).
		Dur("elapsed", time.Since(started)).
		Msg("Aggregation cycle completed")

	return &Result{
		Servers:   servers,
		Timestamp: time.Now().UTC(),
		CycleID:   cycleID,
	}, nil
}

// filterVisible parses each entry's metadata and keeps only entries whose
// display flag is the literal "true".
func (a *Aggregator) filterVisible(entries []models.PanelServer) []candidate {
	candidates := make([]candidate, 0, len(entries))

	for i := range entries {
		entry := entries[i]

		externalID := ""
		if entry.ExternalID != nil {
			externalID = *entry.ExternalID
		}

		meta := metadata.Parse(externalID)
		if !metadata.Visible(meta) {
			continue
		}

		candidates = append(candidates, candidate{entry: entry, meta: meta})
	}

	return candidates
}

// resolveEggs collects the distinct egg ids among the candidates and
// resolves them once with a cycle-scoped resolver.
func (a *Aggregator) resolveEggs(ctx context.Context, candidates []candidate) map[int]*models.Egg {
	ids := make([]int, 0, len(candidates))
	for i := range candidates {
		ids = append(ids, candidates[i].entry.Egg)
	}

	return NewEggResolver(a.panel, a.logger).Resolve(ctx, ids)
}

// collectServers fans the per-server work out across all candidates and
// joins before returning.
func (a *Aggregator) collectServers(ctx context.Context, candidates []candidate) []models.Server {
	var wg sync.WaitGroup

	serverChan := make(chan models.Server, len(candidates))

	for i := range candidates {
		wg.Add(1)

		go func(c candidate) {
			defer wg.Done()
			serverChan <- a.buildServer(ctx, c)
		}(candidates[i])
	}

	go func() {
		wg.Wait()
		close(serverChan)
	}()

	servers := make([]models.Server, 0, len(candidates))
	for server := range serverChan {
		servers = append(servers, server)
	}

	return servers
}

// buildServer merges one candidate's inventory data with its live state
// and, when eligible and online, its probe result.
func (a *Aggregator) buildServer(ctx context.Context, c candidate) models.Server {
	server := models.Server{
		ID:          c.entry.ID,
		UUID:        c.entry.UUID,
		Name:        c.entry.Name,
		Description: c.entry.Description,
		Metadata:    c.meta,
		Domain:      c.meta[metadata.KeyDomain],
		Subdomain:   c.meta[metadata.KeySubdomain],
		Group:       c.meta[metadata.KeyGroup],
		Subgroup:    c.meta[metadata.KeySubgroup],
		Image:       c.entry.Container.Image,
		EggID:       c.entry.Egg,
		IsInstalled: c.entry.Container.Installed == 1,
		UpdatedAt:   c.entry.UpdatedAt,
	}

	if c.egg != nil {
		server.EggUUID = c.egg.UUID
	}

	server.Status = a.currentStatus(ctx, c)

	if c.egg != nil && IsMinecraftEgg(c.egg) && server.Status == models.StatusOnline {
		a.probe(ctx, c, &server)
	}

	return server
}

// currentStatus fetches the live state and normalizes it, falling back to
// the inventory status when the live fetch yields nothing.
func (a *Aggregator) currentStatus(ctx context.Context, c candidate) models.ServerStatus {
	raw := ""
	if c.entry.Status != nil {
		raw = *c.entry.Status
	}

	timeout := time.Duration(a.config.StateTimeout)
	if timeout <= 0 {
		timeout = defaultStateTimeout
	}

	stateCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state, err := a.panel.ServerState(stateCtx, c.entry.UUID)

	switch {
	case err != nil:
		a.logger.Warn().Err(err).Str("uuid", c.entry.UUID).Msg("Live state fetch failed, falling back to inventory status")
	case state != "":
		raw = state
	}

	status := models.NormalizeStatus(raw)
	if status == models.StatusUnknown && raw != "" {
		a.logger.Warn().Str("uuid", c.entry.UUID).Str("raw_status", raw).Msg("Unrecognized upstream status")
	}

	return status
}

// probe queries the server over the game protocol and fills in the player
// fields on success. The direct address wins over the primary address; a
// server with neither is skipped.
func (a *Aggregator) probe(ctx context.Context, c candidate, server *models.Server) {
	host := server.Subdomain
	if host == "" {
		host = server.Domain
	}

	if host == "" {
		a.logger.Debug().Str("uuid", server.UUID).Msg("No probe host, skipping game query")
		return
	}

	port := mcping.ResolvePort(c.entry.Container.Environment, a.config.ProbePort)

	timeout := time.Duration(a.config.ProbeTimeout)
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := a.prober.Ping(probeCtx, host, port)
	if err != nil {
		a.logger.Warn().Err(err).Str("uuid", server.UUID).Str("host", host).Int("port", port).
			Msg("Game query failed, record proceeds without player data")
		return
	}

	online := status.Online
	maxPlayers := status.Max
	server.Players = &online
	server.MaxPlayers = &maxPlayers
	server.PlayerList = status.Sample
}
