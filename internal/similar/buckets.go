// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Bucket rule op names. The not_ prefix in the JSON document negates any
// of them.
const (
	OpPrefix   = "prefix"
	OpContains = "contains"
	OpEquals   = "equals"
)

// Condition is a single comparison on a context field.
type Condition struct {
	Field  string
	Op     string
	Value  string
	Negate bool
}

// Predicate is a tagged variant: exactly one of Leaf, All, Any is set.
// All requires every child to match; Any requires at least one.
type Predicate struct {
	Leaf *Condition
	All  []Predicate
	Any  []Predicate
}

// UnmarshalJSON decodes either a {field,op,value} leaf or a nested
// {all:[...]} / {any:[...]} group.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field string      `json:"field"`
		Op    string      `json:"op"`
		Value string      `json:"value"`
		All   []Predicate `json:"all"`
		Any   []Predicate `json:"any"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case len(raw.All) > 0:
		p.All = raw.All
	case len(raw.Any) > 0:
		p.Any = raw.Any
	default:
		cond := Condition{Field: raw.Field, Op: raw.Op, Value: raw.Value}
		if strings.HasPrefix(cond.Op, "not_") {
			cond.Negate = true
			cond.Op = cond.Op[len("not_"):]
		}
		p.Leaf = &cond
	}
	return nil
}

// Eval evaluates the predicate against the field context.
func (p *Predicate) Eval(ctx map[string]string) bool {
	switch {
	case len(p.All) > 0:
		for i := range p.All {
			if !p.All[i].Eval(ctx) {
				return false
			}
		}
		return true
	case len(p.Any) > 0:
		for i := range p.Any {
			if p.Any[i].Eval(ctx) {
				return true
			}
		}
		return false
	case p.Leaf != nil:
		return p.Leaf.eval(ctx)
	default:
		return false
	}
}

func (c *Condition) eval(ctx map[string]string) bool {
	if c.Field == "" || c.Op == "" {
		return false
	}
	target := strings.ToLower(ctx[c.Field])
	value := strings.ToLower(c.Value)
	var res bool
	switch c.Op {
	case OpPrefix:
		res = value != "" && strings.HasPrefix(target, value)
	case OpContains:
		res = value != "" && strings.Contains(target, value)
	case OpEquals:
		res = target == value
	default:
		res = false
	}
	if c.Negate {
		return !res
	}
	return res
}

// Bucket is one domain bucket with its match rules. Any is tried first;
// when it does not match, All is tried as a conjunction.
type Bucket struct {
	Key    string            `json:"key"`
	Labels map[string]string `json:"labels,omitempty"`
	Any    []Predicate       `json:"any,omitempty"`
	All    []Predicate       `json:"all,omitempty"`
}

// Match evaluates the bucket against the field context.
func (b *Bucket) Match(ctx map[string]string) bool {
	for i := range b.Any {
		if b.Any[i].Eval(ctx) {
			return true
		}
	}
	if len(b.All) > 0 {
		for i := range b.All {
			if !b.All[i].Eval(ctx) {
				return false
			}
		}
		return true
	}
	return false
}

// leafConditions returns the positive top-level leaf conditions of the
// predicate list. Negated and nested predicates are skipped; they cannot
// be turned into store filters.
func leafConditions(preds []Predicate) []Condition {
	var out []Condition
	for i := range preds {
		leaf := preds[i].Leaf
		if leaf == nil || leaf.Negate {
			continue
		}
		if leaf.Field == "" || leaf.Op == "" || leaf.Value == "" {
			continue
		}
		out = append(out, *leaf)
	}
	return out
}

// RuleDoc is a parsed bucket rule document.
type RuleDoc struct {
	Fields  map[string]string `json:"fields,omitempty"`
	Buckets []Bucket          `json:"buckets"`
}

// ParseRules parses a bucket rule JSON document.
func ParseRules(raw string) (*RuleDoc, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty rule document")
	}
	var doc RuleDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse bucket rules: %w", err)
	}
	if len(doc.Buckets) == 0 {
		return nil, fmt.Errorf("rule document has no buckets")
	}
	return &doc, nil
}

// Classify returns the keys of all buckets matching the given call number
// and classification, in document order. Scheme labels ("CAL:ル205") are
// stripped first; when the classification is empty its numeric part is
// derived from the call number.
func (d *RuleDoc) Classify(call, class string) []string {
	call = stripSchemeLabel(call)
	class = stripSchemeLabel(class)

	classNorm := class
	if classNorm == "" && call != "" {
		if num, ok := parseClassNumber(call); ok {
			classNorm = fmt.Sprintf("%d", num)
		}
	}
	ctx := map[string]string{
		"call_number":  call,
		"class_number": classNorm,
	}
	var matched []string
	for i := range d.Buckets {
		b := &d.Buckets[i]
		if b.Key != "" && b.Match(ctx) {
			matched = append(matched, b.Key)
		}
	}
	return matched
}

// DefaultBucketRules is the built-in NDC-flavored domain bucket ruleset.
const DefaultBucketRules = `{
  "fields": {"call_number": "call_number", "class_number": "class_number"},
  "buckets": [
    {"key": "general", "labels": {"ja": "総記"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "0"},
       {"field": "call_number", "op": "prefix", "value": "イ"},
       {"field": "call_number", "op": "prefix", "value": "A"}
     ]},
    {"key": "philosophy", "labels": {"ja": "哲学"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "1"},
       {"field": "call_number", "op": "prefix", "value": "ロ"},
       {"field": "call_number", "op": "prefix", "value": "ハ"},
       {"field": "call_number", "op": "prefix", "value": "B"},
       {"field": "call_number", "op": "prefix", "value": "C"}
     ]},
    {"key": "history", "labels": {"ja": "歴史"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "2"},
       {"field": "call_number", "op": "prefix", "value": "ヨ"},
       {"field": "call_number", "op": "prefix", "value": "タ"},
       {"field": "call_number", "op": "prefix", "value": "ネ"},
       {"field": "call_number", "op": "prefix", "value": "東亜研"},
       {"field": "call_number", "op": "prefix", "value": "H"},
       {"field": "call_number", "op": "prefix", "value": "J"},
       {"field": "call_number", "op": "prefix", "value": "K"},
       {"field": "call_number", "op": "contains", "value": "雑文書"},
       {"field": "call_number", "op": "contains", "value": "昌平坂"},
       {"field": "call_number", "op": "contains", "value": "石清水"},
       {"field": "call_number", "op": "contains", "value": "大徳寺"},
       {"field": "call_number", "op": "contains", "value": "長福寺"},
       {"field": "call_number", "op": "contains", "value": "北野社"}
     ]},
    {"key": "social_sciences", "labels": {"ja": "社会科学"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "30"},
       {"field": "call_number", "op": "prefix", "value": "31"},
       {"field": "call_number", "op": "prefix", "value": "32"},
       {"field": "call_number", "op": "prefix", "value": "33"},
       {"field": "call_number", "op": "prefix", "value": "34"},
       {"field": "call_number", "op": "prefix", "value": "35"},
       {"field": "call_number", "op": "prefix", "value": "36"},
       {"field": "call_number", "op": "prefix", "value": "38"},
       {"field": "call_number", "op": "prefix", "value": "39"},
       {"field": "call_number", "op": "prefix", "value": "ム"},
       {"field": "call_number", "op": "prefix", "value": "ウ"},
       {"field": "call_number", "op": "prefix", "value": "オ"},
       {"field": "call_number", "op": "prefix", "value": "ヤ"},
       {"field": "call_number", "op": "prefix", "value": "ケ"},
       {"field": "call_number", "op": "prefix", "value": "キ"},
       {"field": "call_number", "op": "prefix", "value": "L"},
       {"field": "call_number", "op": "prefix", "value": "M"},
       {"field": "call_number", "op": "prefix", "value": "N"},
       {"field": "call_number", "op": "prefix", "value": "P"},
       {"field": "call_number", "op": "prefix", "value": "Q"},
       {"field": "call_number", "op": "prefix", "value": "V"}
     ]},
    {"key": "education", "labels": {"ja": "教育"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "37"},
       {"field": "call_number", "op": "prefix", "value": "ホ"},
       {"field": "call_number", "op": "prefix", "value": "ヘ"},
       {"field": "call_number", "op": "prefix", "value": "ル185"},
       {"field": "call_number", "op": "prefix", "value": "D"}
     ]},
    {"key": "natural_sciences", "labels": {"ja": "自然科学"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "4"},
       {"field": "call_number", "op": "prefix", "value": "コ"},
       {"field": "call_number", "op": "prefix", "value": "テ"},
       {"field": "call_number", "op": "prefix", "value": "サ"},
       {"field": "call_number", "op": "prefix", "value": "R"},
       {"field": "call_number", "op": "prefix", "value": "S"},
       {"field": "call_number", "op": "prefix", "value": "U"}
     ]},
    {"key": "technology", "labels": {"ja": "技術"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "5"},
       {"field": "call_number", "op": "prefix", "value": "ア"},
       {"field": "call_number", "op": "prefix", "value": "セ"},
       {"field": "call_number", "op": "prefix", "value": "T"},
       {"field": "call_number", "op": "prefix", "value": "Y"}
     ]},
    {"key": "industry", "labels": {"ja": "産業"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "6"},
       {"field": "call_number", "op": "prefix", "value": "ヒ"},
       {"field": "call_number", "op": "prefix", "value": "モ"},
       {"field": "call_number", "op": "prefix", "value": "W"},
       {"field": "call_number", "op": "prefix", "value": "X"}
     ]},
    {"key": "arts", "labels": {"ja": "芸術"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "7"},
       {"field": "call_number", "op": "prefix", "value": "カ"},
       {"field": "call_number", "op": "prefix", "value": "ス"},
       {"field": "call_number", "op": "prefix", "value": "G"},
       {"field": "call_number", "op": "prefix", "value": "Z"}
     ]},
    {"key": "language", "labels": {"ja": "言語"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "8"},
       {"field": "call_number", "op": "prefix", "value": "チ"},
       {"field": "call_number", "op": "prefix", "value": "E"}
     ]},
    {"key": "literature", "labels": {"ja": "文学"},
     "any": [
       {"field": "call_number", "op": "prefix", "value": "9"},
       {"field": "call_number", "op": "prefix", "value": "F"},
       {"all": [
         {"field": "call_number", "op": "prefix", "value": "ル"},
         {"field": "call_number", "op": "not_prefix", "value": "ル185"}
       ]}
     ]}
  ]
}`
