// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/woozymasta/pathrules"
)

func TestParseRules(t *testing.T) {
	t.Parallel()

	got := ParseRules("system", " !userdata ", "", "!", "vendor*")
	want := []pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: "system"},
		{Action: pathrules.ActionExclude, Pattern: "userdata"},
		{Action: pathrules.ActionInclude, Pattern: "vendor*"},
	}
	if len(got) != len(want) {
		t.Fatalf("rules len=%d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Action != want[i].Action || got[i].Pattern != want[i].Pattern {
			t.Fatalf("rule[%d]=%+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPartitionMatcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rules []string
		match map[string]bool
	}{
		{
			name:  "no rules",
			rules: nil,
			match: map[string]bool{"boot": false, "system": false},
		},
		{
			name:  "include only",
			rules: []string{"system", "vend*"},
			match: map[string]bool{"system": true, "vendor": true, "boot": false},
		},
		{
			name:  "exclude only",
			rules: []string{"!userdata"},
			match: map[string]bool{"userdata": false, "boot": true},
		},
		{
			name:  "case insensitive",
			rules: []string{"SYSTEM"},
			match: map[string]bool{"system": true},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, err := newSelectMatcher(ParseRules(tc.rules...))
			if err != nil {
				t.Fatalf("newSelectMatcher: %v", err)
			}

			for name, want := range tc.match {
				if got := m.Match(name); got != want {
					t.Fatalf("Match(%q)=%v, want %v", name, got, want)
				}
			}
		})
	}
}

func TestShouldCompressPartition(t *testing.T) {
	t.Parallel()

	m, err := newCompressMatcher(ParseRules("*"))
	if err != nil {
		t.Fatalf("newCompressMatcher: %v", err)
	}

	if shouldCompressPartition(Partition{Name: "sboot", Kind: KindSboot}, m) {
		t.Fatal("sboot compressed, want raw")
	}
	if !shouldCompressPartition(Partition{Name: "system", Kind: KindPartitionImage}, m) {
		t.Fatal("matched image raw, want compressed")
	}
	if !shouldCompressPartition(Partition{Name: "boot", Kind: KindPartitionImage, Compress: true}, nil) {
		t.Fatal("flagged image raw, want compressed")
	}
}

func TestCompressMatcher_ExcludeOnlyStaysOptIn(t *testing.T) {
	t.Parallel()

	m, err := newCompressMatcher(ParseRules("!userdata"))
	if err != nil {
		t.Fatalf("newCompressMatcher: %v", err)
	}

	for _, name := range []string{"boot", "system", "userdata"} {
		if m.Match(name) {
			t.Fatalf("Match(%q)=true, want false", name)
		}
	}

	if shouldCompressPartition(Partition{Name: "boot", Kind: KindPartitionImage}, m) {
		t.Fatal("unflagged boot compressed by exclude-only rules")
	}
	if !shouldCompressPartition(Partition{Name: "system", Kind: KindPartitionImage, Compress: true}, m) {
		t.Fatal("flagged system raw, want compressed")
	}
}

func TestSelectPartitions(t *testing.T) {
	t.Parallel()

	parts := []Partition{{Name: "boot"}, {Name: "system"}, {Name: "userdata"}}

	if got := selectPartitions(parts, nil); len(got) != 3 {
		t.Fatalf("nil selector kept %d, want 3", len(got))
	}

	sel, err := newSelectMatcher(ParseRules("!user*"))
	if err != nil {
		t.Fatalf("newSelectMatcher: %v", err)
	}

	var names []string
	for _, p := range selectPartitions(parts, sel) {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"boot", "system"}, names); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}
