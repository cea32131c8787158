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

// Package config loads and validates service configuration from JSON
// files, with environment overrides for panel credentials.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/craftdeck/craftdeck/pkg/aggregator"
	srHttp "github.com/craftdeck/craftdeck/pkg/http"
	"github.com/craftdeck/craftdeck/pkg/logger"
	"github.com/craftdeck/craftdeck/pkg/panel"
)

const defaultListenAddr = ":8080"

var errMissingPanelConfig = errors.New("panel_url and api_key are required")

// Config is the full service configuration.
type Config struct {
	ListenAddr string            `json:"listen_addr"`
	APIKey     string            `json:"api_key,omitempty"`
	Panel      panel.Config      `json:"panel"`
	Aggregator aggregator.Config `json:"aggregator,omitempty"`
	CORS       srHttp.CORSConfig `json:"cors,omitempty"`
	Logging    *logger.Config    `json:"logging,omitempty"`
}

// ApplyEnv lets process environment variables override the panel section,
// so credentials can stay out of the config file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PANEL_URL"); v != "" {
		c.Panel.PanelURL = v
	}

	if v := os.Getenv("PANEL_API_KEY"); v != "" {
		c.Panel.APIKey = v
	}

	if v := os.Getenv("PANEL_CLIENT_API_KEY"); v != "" {
		c.Panel.ClientAPIKey = v
	}
}

// Validate fills defaults and rejects configurations no cycle could run
// under.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}

	if c.Panel.PanelURL == "" || c.Panel.APIKey == "" {
		return fmt.Errorf("%w: %w", panel.ErrMissingConfig, errMissingPanelConfig)
	}

	return nil
}

// validator is implemented by configs that can check themselves after
// loading.
type validator interface {
	Validate() error
}

// envOverrider is implemented by configs that accept environment
// overrides before validation.
type envOverrider interface {
	ApplyEnv()
}

// Loader holds the configuration loading dependencies.
type Loader struct {
	loader ConfigLoader
	logger logger.Logger
}

// NewLoader initializes a Loader with a file loader. A nil logger falls
// back to the no-op test logger.
func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Loader{
		loader: &FileConfigLoader{},
		logger: log,
	}
}

// LoadAndValidate reads the config at path into dst, applies environment
// overrides, and validates the result.
func (l *Loader) LoadAndValidate(ctx context.Context, path string, dst interface{}) error {
	if err := l.loader.Load(ctx, path, dst); err != nil {
		return err
	}

	if o, ok := dst.(envOverrider); ok {
		o.ApplyEnv()
	}

	if v, ok := dst.(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	l.logger.Debug().Str("path", path).Msg("Loaded configuration")

	return nil
}
