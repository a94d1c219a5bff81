package audiosweep

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MatchMode selects which side of the allow-list identifiers are compared with.
type MatchMode string

const (
	// MatchByValue compares identifiers with the allow-list URLs. Record
	// identifiers are bare public IDs, so this rarely matches; it is kept as
	// the default because it is what the age policy has always done.
	MatchByValue MatchMode = "value"
	// MatchByKey compares identifiers with the allow-list short names.
	MatchByKey MatchMode = "key"
)

// ParseMatchMode validates a match mode name.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case MatchByValue, MatchByKey:
		return MatchMode(s), nil
	default:
		return "", newError(ConfigurationError, "parse match mode", "", fmt.Errorf("unknown match mode %q (want %q or %q)", s, MatchByValue, MatchByKey))
	}
}

// Allowlist holds resources that are never deleted by the age policy.
type Allowlist struct {
	entries map[string]string
	values  map[string]struct{}
	mode    MatchMode
}

// NewAllowlist builds an allow-list from name → URL entries.
func NewAllowlist(entries map[string]string, mode MatchMode) *Allowlist {
	a := &Allowlist{
		entries: make(map[string]string, len(entries)),
		values:  make(map[string]struct{}, len(entries)),
		mode:    mode,
	}
	for k, v := range entries {
		a.entries[k] = v
		a.values[v] = struct{}{}
	}
	return a
}

// Contains reports whether identifier is protected.
func (a *Allowlist) Contains(identifier string) bool {
	if a == nil {
		return false
	}
	if a.mode == MatchByKey {
		_, ok := a.entries[identifier]
		return ok
	}
	_, ok := a.values[identifier]
	return ok
}

// Mode returns the match mode.
func (a *Allowlist) Mode() MatchMode {
	if a == nil {
		return MatchByValue
	}
	return a.mode
}

// Len returns the number of entries.
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// Names returns the entry names, sorted.
func (a *Allowlist) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.entries))
	for k := range a.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadAllowlist reads a YAML mapping of name → URL.
func LoadAllowlist(path string, mode MatchMode) (*Allowlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(ConfigurationError, "load allowlist", "", fmt.Errorf("failed to read %s: %w", path, err))
	}

	var entries map[string]string
	if err = yaml.Unmarshal(data, &entries); err != nil {
		return nil, newError(ConfigurationError, "load allowlist", "", fmt.Errorf("failed to parse %s: %w", path, err))
	}
	if len(entries) == 0 {
		return nil, newError(ConfigurationError, "load allowlist", "", errors.New(path+" has no entries"))
	}

	return NewAllowlist(entries, mode), nil
}

// backgroundMusic is the built-in allow-list of background tracks.
var backgroundMusic = map[string]string{
	"none":            "",
	"default":         "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607560/tiktok_audio/default.mp3",
	"hard-as":         "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607548/tiktok_audio/hard-as.mp3",
	"wonders":         "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607550/tiktok_audio/wonders.mp3",
	"hot-pepper":      "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607551/tiktok_audio/hot-pepper.mp3",
	"transition":      "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607553/tiktok_audio/transition.mp3",
	"daylight":        "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607556/tiktok_audio/daylight.mp3",
	"cinematic-epic":  "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607558/tiktok_audio/cinematic-epic.mp3",
	"lovely":          "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607562/tiktok_audio/lovely.mp3",
	"emotional-chill": "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607564/tiktok_audio/emotional-chill.mp3",
	"epic-cinematic":  "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607567/tiktok_audio/epic-cinematic.wav",
	"aura-fast":       "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607569/tiktok_audio/aura-fast.mp3",
	"summit":          "https://res.cloudinary.com/dsw0dw6j6/video/upload/v1731607571/tiktok_audio/summit.mp3",
}

// DefaultAllowlist returns the built-in background music allow-list.
func DefaultAllowlist(mode MatchMode) *Allowlist {
	return NewAllowlist(backgroundMusic, mode)
}
