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

// Package panel is the HTTP client for the game-server management panel.
// It speaks to three endpoint families: the application inventory API,
// the per-server client API (live state, power signals), and the egg
// detail API.
package panel

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/craftdeck/craftdeck/pkg/logger"
	"github.com/craftdeck/craftdeck/pkg/models"
)

const (
	defaultTimeout = 10 * time.Second
	perPage        = 100
)

// PowerActions are the signals the panel accepts on the power endpoint.
var PowerActions = []string{"start", "stop", "restart", "kill"}

// Config holds the panel endpoint and credentials. APIKey authenticates
// the application API (inventory, eggs); ClientAPIKey authenticates the
// client API (live state, power).
type Config struct {
	PanelURL           string          `json:"panel_url"`
	APIKey             string          `json:"api_key"`
	ClientAPIKey       string          `json:"client_api_key"`
	Timeout            models.Duration `json:"timeout,omitempty"`
	InsecureSkipVerify bool            `json:"insecure_skip_verify,omitempty"`
}

// Client is a stateless panel API client. Safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient validates the endpoint configuration and builds a client.
// Returns ErrMissingConfig when the panel URL or application API key is
// absent.
func NewClient(config Config, log logger.Logger) (*Client, error) {
	if config.PanelURL == "" || config.APIKey == "" {
		return nil, ErrMissingConfig
	}

	timeout := time.Duration(config.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	//nolint:gosec // self-hosted panels commonly run on self-signed certs
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: log,
	}, nil
}

type paginationMeta struct {
	Pagination struct {
		Total       int `json:"total"`
		Count       int `json:"count"`
		PerPage     int `json:"per_page"`
		CurrentPage int `json:"current_page"`
		TotalPages  int `json:"total_pages"`
	} `json:"pagination"`
}

type listResponse struct {
	Object string            `json:"object"`
	Data   []json.RawMessage `json:"data"`
	Meta   *paginationMeta   `json:"meta"`
}

// ListServers retrieves the full server inventory, following pagination
// until the last page. Individual entries that fail to decode are skipped
// with a warning; a missing or non-array data field is fatal.
func (c *Client) ListServers(ctx context.Context) ([]models.PanelServer, error) {
	var servers []models.PanelServer

	page := 1

	for {
		envelope, err := c.fetchServerPage(ctx, page)
		if err != nil {
			return nil, err
		}

		for i, raw := range envelope.Data {
			var server models.PanelServer
			if err := json.Unmarshal(raw, &server); err != nil {
				c.logger.Warn().Err(err).Int("page", page).Int("index", i).
					Msg("Skipping malformed inventory entry")
				continue
			}

			servers = append(servers, server)
		}

		// break on the local counter too, so a panel that keeps
		// reporting the same current_page cannot loop us forever
		if envelope.Meta == nil ||
			envelope.Meta.Pagination.CurrentPage >= envelope.Meta.Pagination.TotalPages ||
			page >= envelope.Meta.Pagination.TotalPages {
			break
		}

		page++
	}

	c.logger.Debug().Int("servers", len(servers)).Msg("Fetched panel inventory")

	return servers, nil
}

func (c *Client) fetchServerPage(ctx context.Context, page int) (*listResponse, error) {
	endpoint := fmt.Sprintf("%s/api/application/servers?page=%d&per_page=%d", c.config.PanelURL, page, perPage)

	body, err := c.get(ctx, endpoint, c.config.APIKey)
	if err != nil {
		return nil, err
	}

	var envelope listResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: missing data field", ErrMalformedResponse)
	}

	return &envelope, nil
}

type resourcesResponse struct {
	Attributes struct {
		CurrentState *string `json:"current_state"`
	} `json:"attributes"`
}

// ServerState fetches the current runtime state for one server by uuid
// from the client resources endpoint. Callers treat any error as "no
// data"; nothing here is fatal for an aggregation cycle.
func (c *Client) ServerState(ctx context.Context, uuid string) (string, error) {
	if c.config.ClientAPIKey == "" {
		return "", ErrMissingClientKey
	}

	endpoint := fmt.Sprintf("%s/api/client/servers/%s/resources", c.config.PanelURL, uuid)

	body, err := c.get(ctx, endpoint, c.config.ClientAPIKey)
	if err != nil {
		return "", err
	}

	var resources resourcesResponse
	if err := json.Unmarshal(body, &resources); err != nil {
		return "", fmt.Errorf("decoding resources for %s: %w", uuid, err)
	}

	if resources.Attributes.CurrentState == nil {
		return "", nil
	}

	return *resources.Attributes.CurrentState, nil
}

type eggResponse struct {
	Object     string      `json:"object"`
	Attributes *models.Egg `json:"attributes"`
}

// GetEgg fetches the detail record for one egg id.
func (c *Client) GetEgg(ctx context.Context, eggID int) (*models.Egg, error) {
	endpoint := fmt.Sprintf("%s/api/application/eggs/%d", c.config.PanelURL, eggID)

	body, err := c.get(ctx, endpoint, c.config.APIKey)
	if err != nil {
		return nil, err
	}

	var envelope eggResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding egg %d: %w", eggID, err)
	}

	if envelope.Attributes == nil {
		// some panel builds return the egg flat
		var egg models.Egg
		if err := json.Unmarshal(body, &egg); err != nil || egg.ID == 0 {
			return nil, fmt.Errorf("%w: egg %d", ErrMalformedResponse, eggID)
		}

		return &egg, nil
	}

	return envelope.Attributes, nil
}

// SendPowerSignal posts a power action for one server to the client API.
func (c *Client) SendPowerSignal(ctx context.Context, uuid, action string) error {
	if !ValidPowerAction(action) {
		return fmt.Errorf("%w: %s", errInvalidAction, action)
	}

	if c.config.ClientAPIKey == "" {
		return ErrMissingClientKey
	}

	endpoint := fmt.Sprintf("%s/api/client/servers/%s/power", c.config.PanelURL, uuid)

	payload, err := json.Marshal(map[string]string{"signal": action})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	c.setHeaders(req, c.config.ClientAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeResponse(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &UpstreamError{StatusCode: resp.StatusCode, Endpoint: "power"}
	}

	c.logger.Info().Str("uuid", uuid).Str("action", action).Msg("Sent power signal")

	return nil
}

// ValidPowerAction reports whether the panel accepts the given signal.
func ValidPowerAction(action string) bool {
	for _, a := range PowerActions {
		if a == action {
			return true
		}
	}

	return false
}

func (c *Client) get(ctx context.Context, endpoint, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req, key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer c.closeResponse(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Endpoint: req.URL.Path}
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (*Client) setHeaders(req *http.Request, key string) {
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close response body")
	}
}
