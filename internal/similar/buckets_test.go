// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"reflect"
	"testing"
)

func defaultRules(t *testing.T) *RuleDoc {
	t.Helper()
	rules, err := ParseRules(DefaultBucketRules)
	if err != nil {
		t.Fatalf("ParseRules(DefaultBucketRules) failed: %v", err)
	}
	return rules
}

func TestParseRulesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"malformed json", `{"buckets": [`},
		{"no buckets", `{"fields": {}}`},
		{"empty bucket list", `{"buckets": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseRules(tt.raw); err == nil {
				t.Errorf("ParseRules(%q) succeeded, want error", tt.raw)
			}
		})
	}
}

func TestClassifyDefaultRules(t *testing.T) {
	t.Parallel()

	rules := defaultRules(t)

	tests := []struct {
		name  string
		call  string
		class string
		want  []string
	}{
		{"numeric history", "210-H12", "", []string{"history"}},
		{"numeric literature", "913.6", "", []string{"literature"}},
		{"katakana philosophy", "ハ220-186", "", []string{"philosophy"}},
		// ル185 belongs to education; every other ル shelf is literature.
		{"ru185 education", "ル185-3", "", []string{"education"}},
		{"ru190 literature", "ル190", "", []string{"literature"}},
		{"scheme label stripped", "CAL:ル185", "", []string{"education"}},
		{"contains archive name", "某家雑文書 12", "", []string{"history"}},
		{"class fallback", "", "370", []string{}},
		{"no match", "зюйд", "", nil},
		{"empty", "", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rules.Classify(tt.call, tt.class)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.call, tt.class, got, tt.want)
			}
		})
	}
}

func TestClassifyMultipleBuckets(t *testing.T) {
	t.Parallel()

	raw := `{"buckets": [
		{"key": "a", "any": [{"field": "call_number", "op": "prefix", "value": "9"}]},
		{"key": "b", "any": [{"field": "call_number", "op": "contains", "value": "13"}]}
	]}`
	rules, err := ParseRules(raw)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}
	got := rules.Classify("913", "")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify = %v, want %v (document order)", got, want)
	}
}

func TestPredicateNegation(t *testing.T) {
	t.Parallel()

	raw := `{"buckets": [
		{"key": "x", "all": [
			{"field": "call_number", "op": "prefix", "value": "ル"},
			{"field": "call_number", "op": "not_prefix", "value": "ル185"}
		]}
	]}`
	rules, err := ParseRules(raw)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}

	if got := rules.Classify("ル190", ""); len(got) != 1 || got[0] != "x" {
		t.Errorf("Classify(ル190) = %v, want [x]", got)
	}
	if got := rules.Classify("ル185", ""); len(got) != 0 {
		t.Errorf("Classify(ル185) = %v, want no buckets", got)
	}
}

func TestPredicateNestedGroups(t *testing.T) {
	t.Parallel()

	raw := `{"buckets": [
		{"key": "x", "any": [
			{"all": [
				{"field": "call_number", "op": "prefix", "value": "a"},
				{"field": "class_number", "op": "equals", "value": "100"}
			]},
			{"field": "call_number", "op": "equals", "value": "zz"}
		]}
	]}`
	rules, err := ParseRules(raw)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}

	if got := rules.Classify("abc", "100"); len(got) != 1 {
		t.Errorf("nested all with both legs true: Classify = %v, want [x]", got)
	}
	if got := rules.Classify("abc", "200"); len(got) != 0 {
		t.Errorf("nested all with one leg false: Classify = %v, want none", got)
	}
	if got := rules.Classify("zz", ""); len(got) != 1 {
		t.Errorf("sibling leaf in any: Classify = %v, want [x]", got)
	}
}

func TestConditionEvalCaseInsensitive(t *testing.T) {
	t.Parallel()

	cond := Condition{Field: "call_number", Op: OpPrefix, Value: "QA"}
	if !cond.eval(map[string]string{"call_number": "qa76.73"}) {
		t.Error("prefix compare should be case-insensitive")
	}

	unknown := Condition{Field: "call_number", Op: "regex", Value: "x"}
	if unknown.eval(map[string]string{"call_number": "x"}) {
		t.Error("unknown op should evaluate false")
	}
	unknown.Negate = true
	if !unknown.eval(map[string]string{"call_number": "x"}) {
		t.Error("negated unknown op should evaluate true")
	}
}

func TestLeafConditions(t *testing.T) {
	t.Parallel()

	raw := `{"buckets": [
		{"key": "x", "any": [
			{"field": "call_number", "op": "prefix", "value": "9"},
			{"field": "call_number", "op": "not_prefix", "value": "91"},
			{"all": [{"field": "call_number", "op": "prefix", "value": "nested"}]}
		]}
	]}`
	rules, err := ParseRules(raw)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}
	leaves := leafConditions(rules.Buckets[0].Any)
	if len(leaves) != 1 {
		t.Fatalf("leafConditions returned %d conditions, want 1 (negated and nested skipped)", len(leaves))
	}
	if leaves[0].Value != "9" {
		t.Errorf("leaf value = %q, want %q", leaves[0].Value, "9")
	}
}
