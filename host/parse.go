// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errValueSyntax = errors.New("value syntax error")

// Parse a numeric literal or register name. Literals may be written as
// $hex, 0xhex, %binary or decimal.
func (h *Host) parseValue(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, errValueSyntax
	}

	if v, ok := h.resolveIdentifier(s); ok {
		return v, nil
	}

	neg := false
	if s[0] == '-' {
		neg, s = true, s[1:]
	}

	base := 10
	switch {
	case strings.HasPrefix(s, "$"):
		base, s = 16, s[1:]
	case strings.HasPrefix(s, "0x"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "%"):
		base, s = 2, s[1:]
	}

	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s'", errValueSyntax, s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// Parse a 16-bit address. Negative values wrap from the top of memory.
func (h *Host) parseAddr(s string) (uint16, error) {
	v, err := h.parseValue(s)
	if err != nil {
		return 0, err
	}
	if v < -0x8000 || v > 0xffff {
		return 0, fmt.Errorf("address out of range: %s", s)
	}
	return uint16(v), nil
}

// Parse an 8-bit value.
func (h *Host) parseByte(s string) (byte, error) {
	v, err := h.parseValue(s)
	if err != nil {
		return 0, err
	}
	if v < -0x80 || v > 0xff {
		return 0, fmt.Errorf("byte out of range: %s", s)
	}
	return byte(v), nil
}

func (h *Host) resolveIdentifier(s string) (int64, bool) {
	r := &h.cpu.Reg
	switch s {
	case "a":
		return int64(r.A), true
	case "x":
		return int64(r.X), true
	case "y":
		return int64(r.Y), true
	case "sp":
		return int64(r.SP), true
	case "sr":
		return int64(r.SR()), true
	case ".", "pc":
		return int64(r.PC), true
	}
	return 0, false
}
