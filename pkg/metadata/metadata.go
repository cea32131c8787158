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

// Package metadata decodes the key:value tag string the panel operator
// stores in a server's external id.
package metadata

import "strings"

// Keys the dashboard assigns meaning to. Anything else parses through
// into the map untouched.
const (
	KeyDisplay   = "display"
	KeyDomain    = "domain"
	KeySubdomain = "subdomain"
	KeyGroup     = "group"
	KeySubgroup  = "subgroup"
)

const pairSeparator = ","

// Parse decodes a tag string of comma-separated key:value pairs into a
// map. Both sides of a pair are whitespace-trimmed; pairs with an empty
// key or value are dropped; a later duplicate key overwrites an earlier
// one. Parse never fails: malformed input yields a partial or empty map.
func Parse(externalID string) map[string]string {
	meta := make(map[string]string)

	if externalID == "" {
		return meta
	}

	for _, pair := range strings.Split(externalID, pairSeparator) {
		key, value, found := strings.Cut(pair, ":")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "" || value == "" {
			continue
		}

		meta[key] = value
	}

	return meta
}

// Visible reports whether the metadata opts the server into the dashboard.
// The check is a strict literal match: only display:true qualifies.
func Visible(meta map[string]string) bool {
	return meta[KeyDisplay] == "true"
}
