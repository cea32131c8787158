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

package api

import (
	"sort"

	"github.com/craftdeck/craftdeck/pkg/models"
)

// GroupServers partitions servers into the two-level structure the
// dashboard renders: group → subgroup → servers. Servers without a group
// land in Ungrouped; within a group, servers without a subgroup sit in an
// unnamed bucket ordered after the named ones. Groups and subgroups are
// sorted by name; server order within a bucket follows the input.
func GroupServers(servers []models.Server) models.GroupedServer {
	byGroup := make(map[string]map[string][]models.Server)

	var ungrouped []models.Server

	for _, server := range servers {
		if server.Group == "" {
			ungrouped = append(ungrouped, server)
			continue
		}

		subgroups, ok := byGroup[server.Group]
		if !ok {
			subgroups = make(map[string][]models.Server)
			byGroup[server.Group] = subgroups
		}

		subgroups[server.Subgroup] = append(subgroups[server.Subgroup], server)
	}

	groupNames := make([]string, 0, len(byGroup))
	for name := range byGroup {
		groupNames = append(groupNames, name)
	}

	sort.Strings(groupNames)

	grouped := models.GroupedServer{Ungrouped: ungrouped}

	for _, groupName := range groupNames {
		subgroups := byGroup[groupName]

		subgroupNames := make([]string, 0, len(subgroups))
		for name := range subgroups {
			subgroupNames = append(subgroupNames, name)
		}

		sort.Slice(subgroupNames, func(i, j int) bool {
			// the unnamed bucket sorts last
			if subgroupNames[i] == "" {
				return false
			}

			if subgroupNames[j] == "" {
				return true
			}

			return subgroupNames[i] < subgroupNames[j]
		})

		group := models.ServerGroup{Name: groupName}
		for _, subgroupName := range subgroupNames {
			group.Subgroups = append(group.Subgroups, models.SubgroupServers{
				Name:    subgroupName,
				Servers: subgroups[subgroupName],
			})
		}

		grouped.Groups = append(grouped.Groups, group)
	}

	return grouped
}
