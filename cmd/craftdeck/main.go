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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/craftdeck/craftdeck/pkg/aggregator"
	"github.com/craftdeck/craftdeck/pkg/api"
	"github.com/craftdeck/craftdeck/pkg/config"
	"github.com/craftdeck/craftdeck/pkg/lifecycle"
	"github.com/craftdeck/craftdeck/pkg/logger"
	"github.com/craftdeck/craftdeck/pkg/mcping"
	"github.com/craftdeck/craftdeck/pkg/panel"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/craftdeck/craftdeck.json", "Path to config file")
	flag.Parse()

	ctx := context.Background()

	var cfg config.Config

	if err := config.NewLoader(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	mainLogger, err := lifecycle.CreateComponentLogger("craftdeck", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	panelClient, err := panel.NewClient(cfg.Panel, mainLogger)
	if err != nil {
		return err
	}

	prober := mcping.NewPinger(time.Duration(cfg.Aggregator.ProbeTimeout))

	agg := aggregator.New(panelClient, prober, cfg.Aggregator, mainLogger)

	apiServer := api.NewAPIServer(cfg.ListenAddr, mainLogger,
		api.WithCycleRunner(agg),
		api.WithPowerSender(panelClient),
		api.WithCORS(cfg.CORS),
		api.WithAPIKey(cfg.APIKey),
	)

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: "craftdeck",
		Service:     apiServer,
		Logger:      mainLogger,
	})
}
