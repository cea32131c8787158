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

import (
	"bytes"
	"io"
)

const (
	varIntSegmentBits = 0x7F
	varIntContinueBit = 0x80
	varIntMaxShift    = 35
)

// writeVarInt encodes a 32-bit signed value in the Minecraft wire format:
// little-endian groups of 7 bits with a continuation flag.
func writeVarInt(buf *bytes.Buffer, value int32) {
	v := uint32(value) //nolint:gosec // two's complement reinterpretation is the wire format

	for {
		b := byte(v & varIntSegmentBits)

		v >>= 7
		if v != 0 {
			b |= varIntContinueBit
		}

		buf.WriteByte(b)

		if v == 0 {
			return
		}
	}
}

// writeString encodes a length-prefixed UTF-8 string.
func writeString(buf *bytes.Buffer, s string) {
	writeVarInt(buf, int32(len(s))) //nolint:gosec // hostnames are short
	buf.WriteString(s)
}

// readVarInt decodes a 32-bit signed value, erroring on overlong encodings.
func readVarInt(r io.Reader) (int32, error) {
	var result uint32

	var shift uint

	one := make([]byte, 1)

	for {
		if _, err := io.ReadFull(r, one); err != nil {
			return 0, err
		}

		b := one[0]
		result |= uint32(b&varIntSegmentBits) << shift

		if b&varIntContinueBit == 0 {
			return int32(result), nil //nolint:gosec // two's complement reinterpretation
		}

		shift += 7
		if shift >= varIntMaxShift {
			return 0, errVarIntTooLong
		}
	}
}
