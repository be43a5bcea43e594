// Package descriptor encodes and decodes camera viewpoints as compact share
// strings of the form x<num>y<num>z<num>def<num>-zoom<num>.
package descriptor

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/earthview/globe/pkg/core"
)

// ErrInvalidDescriptor is returned by Parse when the input does not match the grammar.
var ErrInvalidDescriptor = errors.New("invalid camera descriptor")

var descriptorRe = regexp.MustCompile(
	`(?i)^x(-?\d+(?:\.\d+)?)y(-?\d+(?:\.\d+)?)z(-?\d+(?:\.\d+)?)def(-?\d+(?:\.\d+)?)(?:-zoom(-?\d+(?:\.\d+)?))?$`,
)

const (
	positionDigits = 4
	angleDigits    = 2
)

// Encode formats a camera state as a descriptor. The -zoom suffix is always present.
func Encode(state core.CameraState) string {
	var b strings.Builder
	b.WriteByte('x')
	b.WriteString(formatNumber(state.Position.X, positionDigits))
	b.WriteByte('y')
	b.WriteString(formatNumber(state.Position.Y, positionDigits))
	b.WriteByte('z')
	b.WriteString(formatNumber(state.Position.Z, positionDigits))
	b.WriteString("def")
	b.WriteString(formatNumber(state.RollDeg, angleDigits))
	b.WriteString("-zoom")
	b.WriteString(formatNumber(core.ClampFov(state.FovDeg), angleDigits))
	return b.String()
}

// Decode parses a descriptor. Whitespace anywhere in the input is ignored
// and matching is case-insensitive. ok is false when the input is not a descriptor.
func Decode(s string) (state core.CameraState, ok bool) {
	normalized := strings.Join(strings.Fields(s), "")
	if normalized == "" {
		return core.CameraState{}, false
	}

	m := descriptorRe.FindStringSubmatch(normalized)
	if m == nil {
		return core.CameraState{}, false
	}

	state.Position = core.Vec3{
		X: parseNumber(m[1], 0),
		Y: parseNumber(m[2], 0),
		Z: parseNumber(m[3], 0),
	}
	state.RollDeg = parseNumber(m[4], 0)
	state.FovDeg = core.DefaultFov
	if m[5] != "" {
		state.FovDeg = core.ClampFov(parseNumber(m[5], core.DefaultFov))
	}
	return state, true
}

// Parse is Decode for callers that want an error.
func Parse(s string) (core.CameraState, error) {
	state, ok := Decode(s)
	if !ok {
		return core.CameraState{}, ErrInvalidDescriptor
	}
	return state, nil
}

// Valid reports whether s decodes.
func Valid(s string) bool {
	_, ok := Decode(s)
	return ok
}

// formatNumber rounds to digits fractional places and strips trailing zeros
// and a trailing decimal point. Non-finite values format as "0".
func formatNumber(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// parseNumber parses a grammar-matched number. Overflowing literals parse to
// an infinity, which is replaced by fallback.
func parseNumber(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
