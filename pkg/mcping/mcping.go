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

// Package mcping implements the Minecraft Server List Ping status query.
// The target host is dialed verbatim: no SRV record resolution happens
// anywhere in this package.
package mcping

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultPort is the standard Minecraft server port.
	DefaultPort = 25565

	// DefaultTimeout bounds the whole query, dial included.
	DefaultTimeout = 2 * time.Second

	// handshakeProtocolVersion of -1 asks the server to answer with
	// whatever protocol it speaks.
	handshakeProtocolVersion = -1

	handshakeNextStateStatus = 1

	packetStatus = 0x00

	maxResponseBytes = 1 << 20
)

var (
	errUnexpectedPacket = errors.New("unexpected packet id in status response")
	errResponseTooLarge = errors.New("status response exceeds size limit")
	errVarIntTooLong    = errors.New("varint is too long")
	errEmptyHost        = errors.New("host is required")
)

// Status is the slice of a Server List Ping response the dashboard cares
// about. Sample is the server-chosen subset of online player names; most
// servers truncate it and that truncation is passed through unchanged.
type Status struct {
	Online int
	Max    int
	Sample []string
}

// Pinger performs status queries with a bounded timeout.
type Pinger struct {
	Timeout time.Duration
}

// NewPinger returns a Pinger with the given timeout, falling back to
// DefaultTimeout when the value is not positive.
func NewPinger(timeout time.Duration) *Pinger {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Pinger{Timeout: timeout}
}

// Ping dials host:port, performs the handshake and status exchange, and
// returns the decoded player numbers. Any transport or protocol failure
// returns an error; the caller decides what absence of data means.
func (p *Pinger) Ping(ctx context.Context, host string, port int) (*Status, error) {
	if host == "" {
		return nil, errEmptyHost
	}

	if port <= 0 {
		port = DefaultPort
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := &net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("dialing %s:%d: %w", host, port, err)
	}
	defer conn.Close() //nolint:errcheck // read side is done when we return

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if err := writeHandshake(conn, host, port); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	if err := writeStatusRequest(conn); err != nil {
		return nil, fmt.Errorf("status request: %w", err)
	}

	payload, err := readStatusResponse(conn)
	if err != nil {
		return nil, fmt.Errorf("status response: %w", err)
	}

	return decodeStatus(payload)
}

type statusPayload struct {
	Players struct {
		Online int `json:"online"`
		Max    int `json:"max"`
		Sample []struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"sample"`
	} `json:"players"`
}

func decodeStatus(payload []byte) (*Status, error) {
	var decoded statusPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decoding status json: %w", err)
	}

	status := &Status{
		Online: decoded.Players.Online,
		Max:    decoded.Players.Max,
	}

	for _, entry := range decoded.Players.Sample {
		status.Sample = append(status.Sample, entry.Name)
	}

	return status, nil
}

func writeHandshake(conn net.Conn, host string, port int) error {
	var payload bytes.Buffer

	writeVarInt(&payload, packetStatus)
	writeVarInt(&payload, handshakeProtocolVersion)
	writeString(&payload, host)

	portBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(portBytes, uint16(port)) //nolint:gosec // validated range
	payload.Write(portBytes)

	writeVarInt(&payload, handshakeNextStateStatus)

	return writeFrame(conn, payload.Bytes())
}

func writeStatusRequest(conn net.Conn) error {
	var payload bytes.Buffer

	writeVarInt(&payload, packetStatus)

	return writeFrame(conn, payload.Bytes())
}

// writeFrame prefixes the payload with its varint length.
func writeFrame(conn net.Conn, payload []byte) error {
	var frame bytes.Buffer

	writeVarInt(&frame, int32(len(payload))) //nolint:gosec // payloads are tiny
	frame.Write(payload)

	_, err := conn.Write(frame.Bytes())

	return err
}

func readStatusResponse(conn net.Conn) ([]byte, error) {
	frameLen, err := readVarInt(conn)
	if err != nil {
		return nil, err
	}

	if frameLen <= 0 || frameLen > maxResponseBytes {
		return nil, errResponseTooLarge
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(conn, frame); err != nil {
		return nil, err
	}

	reader := bytes.NewReader(frame)

	packetID, err := readVarInt(reader)
	if err != nil {
		return nil, err
	}

	if packetID != packetStatus {
		return nil, fmt.Errorf("%w: 0x%02x", errUnexpectedPacket, packetID)
	}

	payloadLen, err := readVarInt(reader)
	if err != nil {
		return nil, err
	}

	if payloadLen < 0 || int(payloadLen) > reader.Len() {
		return nil, errResponseTooLarge
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, err
	}

	return payload, nil
}
