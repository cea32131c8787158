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

package mcping

import "strconv"

const envServerPort = "SERVER_PORT"

// ResolvePort picks the query port for a server: a numeric SERVER_PORT
// from the container environment wins, then a positive port hint, then
// the protocol default.
func ResolvePort(env map[string]interface{}, hint int) int {
	if port, ok := portFromEnv(env); ok {
		return port
	}

	if hint > 0 && hint <= 65535 {
		return hint
	}

	return DefaultPort
}

func portFromEnv(env map[string]interface{}) (int, bool) {
	raw, ok := env[envServerPort]
	if !ok {
		return 0, false
	}

	var port int

	switch value := raw.(type) {
	case string:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, false
		}

		port = parsed
	case float64:
		port = int(value)
	case int:
		port = value
	default:
		return 0, false
	}

	if port <= 0 || port > 65535 {
		return 0, false
	}

	return port, true
}
