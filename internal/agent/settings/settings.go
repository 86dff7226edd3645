// Package settings gives typed access to the user settings kept in the config store.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/energy-exec/server/internal/agent/model"
	logx "github.com/energy-exec/server/pkg/logger"
)

type Settings struct {
	config model.ConfigRepository
}

func New(config model.ConfigRepository) *Settings {
	return &Settings{config: config}
}

// ValidateTimezone returns the IANA zone name for tz when it can be loaded.
// Input is matched case-insensitively for the usual zone spellings, so
// "europe/berlin" yields "Europe/Berlin".
func ValidateTimezone(tz string) (string, bool) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "", false
	}
	for _, candidate := range []string{tz, canonicalZoneCase(tz)} {
		// "Local" loads fine but is not a zone the user can mean
		if candidate == "Local" {
			return "", false
		}
		if _, err := time.LoadLocation(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

var upperZoneSegments = map[string]bool{
	"UTC": true, "UCT": true, "GMT": true, "CET": true, "EET": true, "MET": true, "WET": true,
	"EST": true, "MST": true, "HST": true, "EST5EDT": true, "CST6CDT": true, "MST7MDT": true,
	"PST8PDT": true, "PRC": true, "ROC": true, "ROK": true, "NZ": true, "GB": true, "US": true,
}

var lowerZoneWords = map[string]bool{"of": true, "es": true, "au": true, "de": true, "da": true, "du": true}

// canonicalZoneCase rewrites a zone name to the casing the tz database uses.
func canonicalZoneCase(tz string) string {
	segments := strings.Split(tz, "/")
	for i, seg := range segments {
		upper := strings.ToUpper(seg)
		if upperZoneSegments[upper] || strings.HasPrefix(upper, "GMT") {
			segments[i] = upper
			continue
		}
		var b strings.Builder
		word := 0
		start := true
		for j := 0; j < len(seg); j++ {
			c := seg[j]
			if c == '_' || c == '-' {
				b.WriteByte(c)
				start = true
				continue
			}
			if start {
				rest := seg[j:]
				if k := strings.IndexAny(rest, "_-"); k >= 0 {
					rest = rest[:k]
				}
				lw := strings.ToLower(rest)
				if word > 0 && lowerZoneWords[lw] {
					b.WriteString(lw)
				} else {
					b.WriteString(strings.ToUpper(lw[:1]) + lw[1:])
				}
				j += len(rest) - 1
				word++
				start = false
			}
		}
		segments[i] = b.String()
	}
	return strings.Join(segments, "/")
}

// Timezone returns the stored zone or "" when unset.
func (s *Settings) Timezone(ctx context.Context) (string, error) {
	return s.getString(ctx, model.ConfigKeyTimezone)
}

func (s *Settings) SetTimezone(ctx context.Context, tz string) error {
	valid, ok := ValidateTimezone(tz)
	if !ok {
		return fmt.Errorf("invalid timezone %q", tz)
	}
	return s.config.Set(ctx, model.ConfigKeyTimezone, valid)
}

// IsOnboarded is true once a non-empty timezone is stored.
func (s *Settings) IsOnboarded(ctx context.Context) (bool, error) {
	tz, err := s.Timezone(ctx)
	if err != nil {
		return false, err
	}
	return tz != "", nil
}

// Location resolves the stored zone, falling back to UTC.
func (s *Settings) Location(ctx context.Context) (*time.Location, string) {
	tz, err := s.Timezone(ctx)
	if err != nil || tz == "" {
		return time.UTC, "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logx.Warn().Err(err).Str("timezone", tz).Msg("stored timezone no longer loads, using UTC")
		return time.UTC, "UTC"
	}
	return loc, tz
}

// Model returns the selected model, DefaultModel when absent or unrecognized.
func (s *Settings) Model(ctx context.Context) (model.ModelType, error) {
	v, err := s.getString(ctx, model.ConfigKeyModel)
	if err != nil {
		return model.DefaultModel, err
	}
	m, ok := model.ParseModelType(v)
	if !ok {
		return model.DefaultModel, nil
	}
	return m, nil
}

func (s *Settings) SetModel(ctx context.Context, m model.ModelType) error {
	if _, ok := model.ParseModelType(string(m)); !ok {
		return fmt.Errorf("unsupported model %q", m)
	}
	return s.config.Set(ctx, model.ConfigKeyModel, string(m))
}

// getString treats a missing key or a non-string value as "".
func (s *Settings) getString(ctx context.Context, key string) (string, error) {
	raw, ok, err := s.config.Get(ctx, key)
	if err != nil || !ok {
		return "", err
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		logx.Warn().Str("key", key).RawJSON("value", raw).Msg("config value is not a string")
		return "", nil
	}
	return v, nil
}
