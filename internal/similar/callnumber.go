// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// schemeLabelRe matches leading scheme labels like "CAL:" or "NDC9:",
// with either an ASCII or full-width colon.
var schemeLabelRe = regexp.MustCompile(`^[A-Za-z]{2,10}[0-9]{0,2}[:：][\s　]*`)

// stripSchemeLabel removes leading scheme labels from a call or class
// value: "CAL:ル205" -> "ル205", "NDC6: 913" -> "913". At most a few
// nested labels are removed.
func stripSchemeLabel(s string) string {
	s = strings.TrimSpace(s)
	for i := 0; i < 3 && s != ""; i++ {
		stripped := schemeLabelRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = strings.TrimSpace(stripped)
	}
	return s
}

var unicodeSeparators = strings.NewReplacer(
	"　", " ", // ideographic space
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-",
	"−", "-", // minus sign
	"・", " ", // Japanese middle dot acts as a delimiter
)

// normalizeCallString folds full-width alphanumerics to ASCII and maps
// Unicode separator variants to their ASCII forms. Katakana keeps its
// canonical full-width form.
func normalizeCallString(s string) string {
	s = width.Fold.String(s)
	s = unicodeSeparators.Replace(s)
	return strings.TrimSpace(s)
}

var (
	leadingDigitsRe  = regexp.MustCompile(`^\d+`)
	leadingNonDigits = regexp.MustCompile(`^[^\d]+`)
	firstTokenRe     = regexp.MustCompile(`^[^\s.\-]+`)
	digitRunRe       = regexp.MustCompile(`\d+`)
	trailingSepRe    = regexp.MustCompile(`[\s.\-]+$`)
	asciiLettersRe   = regexp.MustCompile(`^[A-Za-z]+$`)
)

// parseShelf extracts the shelf code from a call number. A leading digit
// run wins ("210" from "210-H12"); otherwise the first token up to a
// space, dot, or hyphen ("ハ220" from "ハ220-186").
func parseShelf(call string) string {
	if call == "" {
		return ""
	}
	s := normalizeCallString(stripSchemeLabel(call))
	if s == "" {
		return ""
	}
	if m := leadingDigitsRe.FindString(s); m != "" {
		return strings.ToUpper(m)
	}
	if m := firstTokenRe.FindString(s); m != "" {
		return strings.ToUpper(m)
	}
	return ""
}

// parseClassPrefix extracts the non-numeric prefix of a class or call
// string: "ル185" -> "ル", "QA76" -> "QA", "210-H" -> "". ASCII prefixes
// are uppercased; other scripts are kept as-is.
func parseClassPrefix(s string) string {
	if s == "" {
		return ""
	}
	s = normalizeCallString(stripSchemeLabel(s))
	if s == "" {
		return ""
	}
	prefix := leadingNonDigits.FindString(s)
	if prefix == "" {
		return ""
	}
	prefix = trailingSepRe.ReplaceAllString(prefix, "")
	if asciiLettersRe.MatchString(prefix) {
		prefix = strings.ToUpper(prefix)
	}
	return prefix
}

// parseClassNumber extracts the first digit run of a class or call string.
func parseClassNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	s = normalizeCallString(stripSchemeLabel(s))
	m := digitRunRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// callClass carries the parsed shelving facets of one item.
type callClass struct {
	shelf       string
	classNum    int
	hasClassNum bool
	classPrefix string
}

// parseCallAndClass derives shelf and classification facets. The call
// number is preferred for the classification; the explicit class value is
// only used when no call number is present.
func parseCallAndClass(call, class string) callClass {
	call = stripSchemeLabel(call)
	class = stripSchemeLabel(class)
	source := call
	if source == "" {
		source = class
	}
	cc := callClass{
		shelf:       parseShelf(call),
		classPrefix: parseClassPrefix(source),
	}
	cc.classNum, cc.hasClassNum = parseClassNumber(source)
	return cc
}

var (
	yearRe         = regexp.MustCompile(`\b(1\d{3}|2\d{3})\b`)
	fallbackYearRe = regexp.MustCompile(`(\d{3,4})`)
)

// parseYear extracts a publication year from a date string. Four-digit
// years 1000-2999 are preferred; otherwise the first 3-4 digit run.
func parseYear(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	s = width.Fold.String(s)
	if m := yearRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	if m := fallbackYearRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}
