// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"reflect"
	"testing"
)

func TestExtractSignals(t *testing.T) {
	t.Parallel()

	item := mkItem(1, "x", map[string][]string{
		"cat:bibid":    {"BN01"},
		"cat:authorId": {"A1", "", "A2", "A1"},
		"dc:subject":   {" 歴史 ", "日本"},
	})
	sig := ExtractSignals(&item, testFields())

	if sig.BibID != "BN01" {
		t.Errorf("BibID = %q, want BN01", sig.BibID)
	}
	// Values trims and drops empties but keeps duplicates; dedup happens
	// where each consumer needs it.
	if want := []string{"A1", "A2", "A1"}; !reflect.DeepEqual(sig.AuthorIDs, want) {
		t.Errorf("AuthorIDs = %v, want %v", sig.AuthorIDs, want)
	}
	if want := []string{"歴史", "日本"}; !reflect.DeepEqual(sig.Subjects, want) {
		t.Errorf("Subjects = %v, want %v", sig.Subjects, want)
	}
	if sig.NCID != "" || sig.Call != "" {
		t.Errorf("unmapped or absent fields should stay empty, got NCID=%q Call=%q", sig.NCID, sig.Call)
	}
}

func TestIntersectCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []string
		want int
	}{
		{"disjoint", []string{"x"}, []string{"y"}, 0},
		{"single", []string{"x", "y"}, []string{"y"}, 1},
		{"duplicates collapse", []string{"x", "x"}, []string{"x", "x"}, 1},
		{"empties ignored", []string{"", "x"}, []string{"x", ""}, 1},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := intersectCount(tt.a, tt.b); got != tt.want {
				t.Errorf("intersectCount(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSignalLabels(t *testing.T) {
	t.Parallel()

	if got := (Signal{Kind: SignalSubject, Delta: 4}).Label(); got != "subject" {
		t.Errorf("Label = %q, want subject", got)
	}
	if got := (Signal{Kind: SignalMultiMatch, Detail: "subject"}).Label(); got != "subject_multi" {
		t.Errorf("Label = %q, want subject_multi", got)
	}
	if got := (Signal{Kind: SignalBucketExpand, Detail: "history"}).Label(); got != "bucket_expand:history" {
		t.Errorf("Label = %q, want bucket_expand:history", got)
	}
}

func TestSignalKindTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind SignalKind
		want Tier
	}{
		{SignalNCID, TierIdentity},
		{SignalAuthorID, TierIdentity},
		{SignalAuthorizedName, TierIdentity},
		{SignalSubject, TierTopical},
		{SignalBucket, TierTopical},
		{SignalShelf, TierShelving},
		{SignalClassProximity, TierShelving},
		{SignalClassExact, TierShelving},
		{SignalMaterialType, TierWeak},
		{SignalIssuedProximity, TierWeak},
		{SignalCollections, TierWeak},
		{SignalBibID, TierNone},
		{SignalSeriesTitle, TierNone},
		{SignalSameTitlePenalty, TierNone},
	}
	for _, tt := range tests {
		if got := tt.kind.Tier(); got != tt.want {
			t.Errorf("%v.Tier() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
