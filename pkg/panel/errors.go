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

package panel

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfig means the panel endpoint or credential is not
	// configured. Fatal: no aggregation cycle can run without it.
	ErrMissingConfig = errors.New("panel configuration is missing")

	// ErrMissingClientKey means the client API key needed for the
	// per-server endpoints is not configured.
	ErrMissingClientKey = errors.New("panel client API key is missing")

	// ErrMalformedResponse means the inventory envelope did not have the
	// expected shape (missing or non-array data field).
	ErrMalformedResponse = errors.New("malformed response from panel")

	errInvalidAction = errors.New("invalid power action")
)

// UpstreamError is a non-success HTTP response from the panel. It carries
// the status code for caller-visible diagnostics.
type UpstreamError struct {
	StatusCode int
	Endpoint   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("panel returned status %d for %s", e.StatusCode, e.Endpoint)
}
