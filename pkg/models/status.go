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

package models

import "strings"

// ServerStatus is the closed set of display states. Raw panel status
// strings never leave the aggregation layer.
type ServerStatus string

const (
	StatusOnline     ServerStatus = "online"
	StatusOffline    ServerStatus = "offline"
	StatusStarting   ServerStatus = "starting"
	StatusStopping   ServerStatus = "stopping"
	StatusInstalling ServerStatus = "installing"
	StatusUnknown    ServerStatus = "unknown"
)

// NormalizeStatus maps a raw upstream status string to a ServerStatus.
// Matching is case-insensitive and exact; anything unrecognized, including
// the empty string, normalizes to StatusUnknown.
func NormalizeStatus(raw string) ServerStatus {
	switch strings.ToLower(raw) {
	case "running":
		return StatusOnline
	case "offline", "stopped":
		return StatusOffline
	case "starting":
		return StatusStarting
	case "stopping":
		return StatusStopping
	case "installing":
		return StatusInstalling
	default:
		return StatusUnknown
	}
}
