// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// partitionMatcher holds compiled partition name rules.
type partitionMatcher struct {
	matcher *pathrules.Matcher
}

// ParseRules converts patterns to rules. A leading "!" marks an exclude rule.
func ParseRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		action := pathrules.ActionInclude
		if rest, ok := strings.CutPrefix(pattern, "!"); ok {
			action = pathrules.ActionExclude
			pattern = strings.TrimSpace(rest)
		}
		if pattern == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{Action: action, Pattern: pattern})
	}

	return rules
}

// newSelectMatcher compiles partition selection rules.
// Rule sets made only of excludes default to including everything else.
func newSelectMatcher(rules []pathrules.Rule) (*partitionMatcher, error) {
	includeByDefault := true
	for _, rule := range rules {
		if rule.Action == pathrules.ActionInclude && strings.TrimSpace(rule.Pattern) != "" {
			includeByDefault = false
			break
		}
	}

	return newPartitionMatcher(rules, includeByDefault)
}

// newCompressMatcher compiles compression rules. Compression is opt-in:
// unmatched partitions are never compressed.
func newCompressMatcher(rules []pathrules.Rule) (*partitionMatcher, error) {
	return newPartitionMatcher(rules, false)
}

// newPartitionMatcher compiles partition name rules. Names no rule decides
// are included only when includeByDefault is set.
func newPartitionMatcher(rules []pathrules.Rule, includeByDefault bool) (*partitionMatcher, error) {
	rules = normalizePartitionRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	opts := pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	}
	if includeByDefault {
		opts.DefaultAction = pathrules.ActionInclude
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidRule, err)
	}

	return &partitionMatcher{matcher: matcher}, nil
}

// normalizePartitionRules trims patterns and drops empty ones.
func normalizePartitionRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether partition name is included by the rules.
func (m *partitionMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	return m.matcher.Included(name, false)
}

// selectPartitions keeps partitions matched by selector; nil selector keeps all.
func selectPartitions(partitions []Partition, selector *partitionMatcher) []Partition {
	if selector == nil {
		return partitions
	}

	out := make([]Partition, 0, len(partitions))
	for _, p := range partitions {
		if selector.Match(p.Name) {
			out = append(out, p)
		}
	}

	return out
}

// shouldCompressPartition reports whether partition payload is stored as lzop.
func shouldCompressPartition(p Partition, matcher *partitionMatcher) bool {
	if p.Kind != KindPartitionImage {
		return false
	}

	return p.Compress || matcher.Match(p.Name)
}
