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

// Package models contains the shared data types for the dashboard service.
package models

import "encoding/json"

// PanelContainer is the container section of a panel inventory entry.
type PanelContainer struct {
	StartupCommand string                 `json:"startup_command"`
	Image          string                 `json:"image"`
	Installed      int                    `json:"installed"`
	Environment    map[string]interface{} `json:"environment"`
}

// PanelServer is one raw inventory entry as returned by the panel
// application API. Entries may arrive wrapped in an "attributes" object
// (JSON:API style) or flat; UnmarshalJSON accepts both.
type PanelServer struct {
	ID          int            `json:"id"`
	UUID        string         `json:"uuid"`
	Identifier  string         `json:"identifier"`
	ExternalID  *string        `json:"external_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      *string        `json:"status"`
	Egg         int            `json:"egg"`
	Container   PanelContainer `json:"container"`
	UpdatedAt   string         `json:"updated_at"`
}

type panelServerAlias PanelServer

type panelServerEnvelope struct {
	Object     string          `json:"object"`
	Attributes json.RawMessage `json:"attributes"`
}

// UnmarshalJSON unwraps the attributes envelope when present and falls back
// to decoding the object itself.
func (p *PanelServer) UnmarshalJSON(data []byte) error {
	var env panelServerEnvelope
	if err := json.Unmarshal(data, &env); err == nil && len(env.Attributes) > 0 {
		data = env.Attributes
	}

	var alias panelServerAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	*p = PanelServer(alias)

	return nil
}

// Egg is the resolved capability record for a panel egg. Many servers may
// reference the same egg.
type Egg struct {
	ID          int      `json:"id"`
	UUID        string   `json:"uuid"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// Server is one display-ready record produced by the aggregation cycle.
type Server struct {
	ID          int               `json:"id"`
	UUID        string            `json:"uuid"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      ServerStatus      `json:"status"`
	Metadata    map[string]string `json:"metadata"`
	Domain      string            `json:"domain,omitempty"`
	Subdomain   string            `json:"subdomain,omitempty"`
	Group       string            `json:"group,omitempty"`
	Subgroup    string            `json:"subgroup,omitempty"`
	Image       string            `json:"image"`
	EggID       int               `json:"eggId,omitempty"`
	EggUUID     string            `json:"eggUuid,omitempty"`
	IsInstalled bool              `json:"isInstalled"`
	UpdatedAt   string            `json:"updatedAt"`
	Players     *int              `json:"players,omitempty"`
	MaxPlayers  *int              `json:"maxPlayers,omitempty"`
	PlayerList  []string          `json:"playerList,omitempty"`
}

// ServersResponse is the payload served to the dashboard frontend.
type ServersResponse struct {
	Servers   []Server      `json:"servers"`
	Grouped   GroupedServer `json:"grouped"`
	Timestamp string        `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

// SubgroupServers is one named subgroup bucket within a group.
type SubgroupServers struct {
	Name    string   `json:"name,omitempty"`
	Servers []Server `json:"servers"`
}

// ServerGroup is one named group with its subgroup buckets. Servers
// without a subgroup sit in the unnamed bucket, ordered last.
type ServerGroup struct {
	Name      string            `json:"name"`
	Subgroups []SubgroupServers `json:"subgroups"`
}

// GroupedServer is the two-level grouping structure consumed by the
// dashboard list view.
type GroupedServer struct {
	Groups    []ServerGroup `json:"groups"`
	Ungrouped []Server      `json:"ungrouped,omitempty"`
}

// PowerRequest is the body of a power-control call.
type PowerRequest struct {
	Action string `json:"action"`
}

// PowerResponse acknowledges a power-control call.
type PowerResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
}
