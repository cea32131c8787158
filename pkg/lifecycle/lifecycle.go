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

// Package lifecycle runs a service until the context ends or a shutdown
// signal arrives.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craftdeck/craftdeck/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Service is a long-running component with start/stop lifecycle hooks.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServerOptions configures RunServer.
type ServerOptions struct {
	ServiceName string
	Service     Service
	Logger      logger.Logger
}

// RunServer starts the service and blocks until it exits on its own, the
// context is canceled, or SIGINT/SIGTERM arrives, then stops it with a
// bounded shutdown window.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- opts.Service.Start(ctx)
	}()

	log.Info().Str("service", opts.ServiceName).Msg("Service started")

	var runErr error

	select {
	case err := <-errCh:
		runErr = err
	case <-ctx.Done():
		log.Info().Str("service", opts.ServiceName).Msg("Shutdown signal received")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := opts.Service.Stop(stopCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stopping %s: %w", opts.ServiceName, err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	return nil
}

// CreateComponentLogger creates a logger scoped to one component.
func CreateComponentLogger(component string, config *logger.Config) (logger.Logger, error) {
	return logger.NewComponent(config, component)
}
