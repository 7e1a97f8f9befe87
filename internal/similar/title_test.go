// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import "testing"

func TestNormalizeTitleBaseHeuristic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"volume kanji counter", "明治文化史 第3巻", "明治文化史"},
		{"bare counter", "日本の歴史 3巻", "日本の歴史"},
		{"reversed counter", "資料集 巻2", "資料集"},
		{"vol abbreviation", "Annual Report Vol. 12", "annual report"},
		{"volume word", "Collected Papers Volume 3", "collected papers"},
		{"parenthesised", "短編集 (2)", "短編集"},
		{"bracketed", "選集 [4]", "選集"},
		{"hyphen number", "講座日本史-5", "講座日本史"},
		{"trailing digits", "現代文学全集 18", "現代文学全集"},
		{"kanji numeral volume", "源氏物語 第三巻", "源氏物語"},
		{"part marker", "平家物語 上ノ下", "平家物語"},
		{"whitespace collapsed", "日本　の　歴史", "日本 の 歴史"},
		{"lowercased", "The Go Programming Language", "the go programming language"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTitleBase(tt.in, nil); got != tt.want {
				t.Errorf("NormalizeTitleBase(%q, nil) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitleBaseStrictSeparators(t *testing.T) {
	t.Parallel()

	seps := []string{" , "}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cut at separator", "日本の歴史 , 第3巻", "日本の歴史"},
		{"case insensitive cut", "HISTORY , Volume 2", "history"},
		// No separator present: the strict rule must not fall back to the
		// heuristic battery, or meaningful trailing numbers get eaten.
		{"no separator keeps year", "平成史 1989", "平成史 1989"},
		{"separator at position zero ignored", " , 資料編", ", 資料編"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTitleBase(tt.in, seps); got != tt.want {
				t.Errorf("NormalizeTitleBase(%q, seps) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitleBaseVolumesCollapse(t *testing.T) {
	t.Parallel()

	a := NormalizeTitleBase("吾輩は猫である 第1巻", nil)
	b := NormalizeTitleBase("吾輩は猫である 第2巻", nil)
	if a == "" || a != b {
		t.Errorf("volumes normalized to %q and %q, want equal non-empty bases", a, b)
	}
}
