// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"regexp"
	"strings"
)

var titleWhitespaceRe = regexp.MustCompile(`[\s　]+`)

// volumeMarkerRes strips trailing volume indicators. Applied in order,
// each once, so compound markers ("第3巻") reduce fully.
var volumeMarkerRes = []*regexp.Regexp{
	// Arabic numerals.
	regexp.MustCompile(`[\s　]*第[\s　]*\d+[\s　]*巻[\s　]*$`),
	regexp.MustCompile(`[\s　]*\d+[\s　]*巻[\s　]*$`),
	regexp.MustCompile(`[\s　]*巻[\s　]*\d+[\s　]*$`),
	regexp.MustCompile(`(?i)[\s　]*vol\.?[\s　]*\d+[\s　]*$`),
	regexp.MustCompile(`(?i)[\s　]*volume[\s　]*\d+[\s　]*$`),
	regexp.MustCompile(`[\s　]*\([\s　]*\d+[\s　]*\)[\s　]*$`),
	regexp.MustCompile(`[\s　]*\[[\s　]*\d+[\s　]*\][\s　]*$`),
	regexp.MustCompile(`[\s　]*-[\s　]*\d+[\s　]*$`),
	regexp.MustCompile(`[\s　]*\d+[\s　]*$`),
	// Kanji numerals.
	regexp.MustCompile(`[\s　]*第[\s　]*[一二三四五六七八九十百零〇]+[\s　]*巻[\s　]*$`),
	regexp.MustCompile(`[\s　]*[一二三四五六七八九十百零〇]+[\s　]*巻[\s　]*$`),
	// Japanese part markers like 上ノ上 ... 下之下.
	regexp.MustCompile(`[\s　,、，]*[上中下][ノ之][上中下][\s　]*$`),
}

// NormalizeTitleBase reduces a title to its base form so volumes of the
// same work compare equal.
//
// When separators are configured, the title is cut at the first separator
// occurrence past position zero and no further stripping happens: a strict
// separator rule must not eat meaningful trailing numbers like years.
// Without separators, trailing volume markers are stripped heuristically.
func NormalizeTitleBase(title string, separators []string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return ""
	}
	t = titleWhitespaceRe.ReplaceAllString(t, " ")

	if len(separators) > 0 {
		lower := strings.ToLower(t)
		for _, sep := range separators {
			if idx := strings.Index(lower, strings.ToLower(sep)); idx > 0 {
				lower = lower[:idx]
				break
			}
		}
		lower = titleWhitespaceRe.ReplaceAllString(lower, " ")
		return strings.TrimSpace(lower)
	}

	t = strings.ToLower(t)
	for _, re := range volumeMarkerRes {
		t = re.ReplaceAllString(t, "")
	}
	return strings.TrimSpace(t)
}
