package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Source identifies an independent verification channel.
type Source string

const (
	SourceWeather Source = "weather"
	SourceNLP     Source = "nlp"
	SourcePeer    Source = "peer"
)

// knownSources lists every source with a payload schema and a rubric.
var knownSources = []Source{SourceWeather, SourceNLP, SourcePeer}

// KnownSources returns every source the service can decode and score.
func KnownSources() []Source {
	return slices.Clone(knownSources)
}

// ParseSource normalizes s and checks it names a known source.
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(knownSources, src) {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
	return src, nil
}

// ParseSourceList parses a comma-separated list of sources, dropping blanks
// and duplicates while keeping first-seen order.
func ParseSourceList(s string) ([]Source, error) {
	var out []Source
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		src, err := ParseSource(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, src) {
			out = append(out, src)
		}
	}
	return out, nil
}

// MissingSources returns the required sources absent from reported, in
// required order.
func MissingSources(required, reported []Source) []Source {
	var missing []Source
	for _, src := range required {
		if !slices.Contains(reported, src) {
			missing = append(missing, src)
		}
	}
	return missing
}

// Covers reports whether reported includes every required source.
func Covers(required, reported []Source) bool {
	return len(MissingSources(required, reported)) == 0
}
