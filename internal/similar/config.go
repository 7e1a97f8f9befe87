// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Source is a flat key-value view of the engine settings. Missing or
// malformed values never fail a request; each key falls back to its
// documented default.
type Source interface {
	// Get returns the raw value for a key and whether it was present.
	Get(key string) (string, bool)
}

// MapSource is an in-memory Source, used by tests and the config snapshot
// endpoint.
type MapSource map[string]string

// Get implements Source.
func (m MapSource) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// TieBreakPolicy selects the equal-score ordering rule.
type TieBreakPolicy string

const (
	TieBreakNone      TieBreakPolicy = "none"
	TieBreakConsensus TieBreakPolicy = "consensus"
	TieBreakStrength  TieBreakPolicy = "strength"
	TieBreakIdentity  TieBreakPolicy = "identity"
)

// SameTitleMode controls diversification of same-base-title candidates.
type SameTitleMode string

const (
	SameTitleAllow             SameTitleMode = "allow"
	SameTitleExclude           SameTitleMode = "exclude"
	SameTitleExcludeNoFallback SameTitleMode = "exclude_no_fallback"
)

// FieldMap names the property term behind each signal. An empty term
// disables the signal entirely.
type FieldMap struct {
	BibID            string `json:"bibid"`
	NCID             string `json:"ncid"`
	AuthorID         string `json:"author_id"`
	AuthorizedName   string `json:"authorized_name"`
	Subject          string `json:"subject"`
	SeriesTitle      string `json:"series_title"`
	Publisher        string `json:"publisher"`
	CallNumber       string `json:"call_number"`
	ClassNumber      string `json:"class_number"`
	Location         string `json:"location"`
	Issued           string `json:"issued"`
	MaterialType     string `json:"material_type"`
	ViewingDirection string `json:"viewing_direction"`
}

// Weights holds the per-signal score contributions.
type Weights struct {
	BibID            float64 `json:"bibid"`
	NCID             float64 `json:"ncid"`
	AuthorID         float64 `json:"author_id"`
	AuthorizedName   float64 `json:"authorized_name"`
	Subject          float64 `json:"subject"`
	Bucket           float64 `json:"bucket"`
	Shelf            float64 `json:"shelf"`
	SeriesTitle      float64 `json:"series_title"`
	Publisher        float64 `json:"publisher"`
	ClassProximity   float64 `json:"class_proximity"`
	ClassExact       float64 `json:"class_exact"`
	MaterialType     float64 `json:"material_type"`
	IssuedProximity  float64 `json:"issued_proximity"`
	PublicationPlace float64 `json:"publication_place"`
}

// Config is the immutable per-request weight configuration. It is
// assembled once from a Source at the start of a request; nothing mutates
// it afterwards.
type Config struct {
	Limit            int            `json:"limit"`
	ScopeSite        bool           `json:"scope_site"`
	UseCollections   bool           `json:"use_collections"`
	CollectionWeight float64        `json:"collection_weight"`
	TieBreak         TieBreakPolicy `json:"tiebreak_policy"`

	Fields  FieldMap `json:"fields"`
	Weights Weights  `json:"weights"`

	ClassProximityThreshold  int `json:"class_proximity_threshold"`
	IssuedProximityThreshold int `json:"issued_proximity_threshold"`

	// BucketRules is the raw JSON rule document; parsed per request with
	// graceful degradation.
	BucketRules string `json:"bucket_rules"`

	DemoteSameBib    bool          `json:"demote_same_bibid"`
	SameBibPenalty   float64       `json:"same_bibid_penalty"`
	SameTitlePenalty float64       `json:"same_title_penalty"`
	SameTitleMode    SameTitleMode `json:"same_title_mode"`

	// TitleVolumeSeparators are strict cut strings for base-title
	// normalization, one per configured line, whitespace runs collapsed.
	TitleVolumeSeparators []string `json:"title_volume_separators"`

	MultiMatch      bool    `json:"multi_match"`
	MultiMatchDecay float64 `json:"multi_match_decay"`

	Jitter               bool    `json:"jitter"`
	JitterPoolMultiplier float64 `json:"jitter_pool_multiplier"`

	ShelfExpand      bool `json:"shelf_expand"`
	ShelfExpandLimit int  `json:"shelf_expand_limit"`
}

// Defaults returns the configuration used when a Source has no overrides.
func Defaults() Config {
	return Config{
		Limit:            6,
		ScopeSite:        true,
		UseCollections:   true,
		CollectionWeight: 3,
		TieBreak:         TieBreakNone,
		Fields: FieldMap{
			CallNumber:   "dcndl:callNumber",
			ClassNumber:  "dc:subject",
			Location:     "dcndl:location",
			Issued:       "dcterms:issued",
			MaterialType: "dcndl:materialType",
		},
		Weights: Weights{
			BibID:            0,
			NCID:             0,
			AuthorID:         6,
			AuthorizedName:   4,
			Subject:          4,
			Bucket:           3,
			Shelf:            2,
			SeriesTitle:      3,
			Publisher:        2,
			ClassProximity:   1,
			ClassExact:       2,
			MaterialType:     2,
			IssuedProximity:  1,
			PublicationPlace: 1,
		},
		ClassProximityThreshold:  5,
		IssuedProximityThreshold: 5,
		BucketRules:              DefaultBucketRules,
		DemoteSameBib:            true,
		SameBibPenalty:           150,
		SameTitlePenalty:         150,
		SameTitleMode:            SameTitleAllow,
		TitleVolumeSeparators:    []string{" , "},
		MultiMatch:               false,
		MultiMatchDecay:          0.2,
		Jitter:                   false,
		JitterPoolMultiplier:     1.5,
		ShelfExpand:              false,
		ShelfExpandLimit:         100,
	}
}

// FromSource builds a Config from the settings source, applying defaults
// and clamping for every malformed value.
func FromSource(src Source) Config {
	cfg := Defaults()
	if src == nil {
		return cfg
	}

	cfg.Limit = getInt(src, "limit", cfg.Limit)
	if cfg.Limit <= 0 {
		cfg.Limit = Defaults().Limit
	}
	cfg.ScopeSite = getBool(src, "scope_site", cfg.ScopeSite)
	cfg.UseCollections = getBool(src, "use_collections", cfg.UseCollections)
	cfg.CollectionWeight = getFloat(src, "collection_weight", cfg.CollectionWeight)
	cfg.TieBreak = ParseTieBreak(getString(src, "tiebreak_policy", string(cfg.TieBreak)))

	cfg.Fields.BibID = getString(src, "map.bibid", cfg.Fields.BibID)
	cfg.Fields.NCID = getString(src, "map.ncid", cfg.Fields.NCID)
	cfg.Fields.AuthorID = getString(src, "map.author_id", cfg.Fields.AuthorID)
	cfg.Fields.AuthorizedName = getString(src, "map.authorized_name", cfg.Fields.AuthorizedName)
	cfg.Fields.Subject = getString(src, "map.subject", cfg.Fields.Subject)
	cfg.Fields.SeriesTitle = getString(src, "map.series_title", cfg.Fields.SeriesTitle)
	cfg.Fields.Publisher = getString(src, "map.publisher", cfg.Fields.Publisher)
	cfg.Fields.CallNumber = getString(src, "map.call_number", cfg.Fields.CallNumber)
	cfg.Fields.ClassNumber = getString(src, "map.class_number", cfg.Fields.ClassNumber)
	cfg.Fields.Location = getString(src, "map.location", cfg.Fields.Location)
	cfg.Fields.Issued = getString(src, "map.issued", cfg.Fields.Issued)
	cfg.Fields.MaterialType = getString(src, "map.material_type", cfg.Fields.MaterialType)
	cfg.Fields.ViewingDirection = getString(src, "map.viewing_direction", cfg.Fields.ViewingDirection)

	cfg.Weights.BibID = getFloat(src, "weight.bibid", cfg.Weights.BibID)
	cfg.Weights.NCID = getFloat(src, "weight.ncid", cfg.Weights.NCID)
	cfg.Weights.AuthorID = getFloat(src, "weight.author_id", cfg.Weights.AuthorID)
	cfg.Weights.AuthorizedName = getFloat(src, "weight.authorized_name", cfg.Weights.AuthorizedName)
	cfg.Weights.Subject = getFloat(src, "weight.subject", cfg.Weights.Subject)
	cfg.Weights.Bucket = getFloat(src, "weight.domain_bucket", cfg.Weights.Bucket)
	cfg.Weights.Shelf = getFloat(src, "weight.call_shelf", cfg.Weights.Shelf)
	cfg.Weights.SeriesTitle = getFloat(src, "weight.series_title", cfg.Weights.SeriesTitle)
	cfg.Weights.Publisher = getFloat(src, "weight.publisher", cfg.Weights.Publisher)
	cfg.Weights.ClassProximity = getFloat(src, "weight.class_proximity", cfg.Weights.ClassProximity)
	cfg.Weights.ClassExact = getFloat(src, "weight.class_exact", cfg.Weights.ClassExact)
	cfg.Weights.MaterialType = getFloat(src, "weight.material_type", cfg.Weights.MaterialType)
	cfg.Weights.IssuedProximity = getFloat(src, "weight.issued_proximity", cfg.Weights.IssuedProximity)
	cfg.Weights.PublicationPlace = getFloat(src, "weight.publication_place", cfg.Weights.PublicationPlace)

	cfg.ClassProximityThreshold = getInt(src, "class_proximity_threshold", cfg.ClassProximityThreshold)
	cfg.IssuedProximityThreshold = getInt(src, "issued_proximity_threshold", cfg.IssuedProximityThreshold)
	cfg.BucketRules = getString(src, "bucket_rules", cfg.BucketRules)

	cfg.DemoteSameBib = getBool(src, "serendipity.demote_same_bibid", cfg.DemoteSameBib)
	cfg.SameBibPenalty = getFloat(src, "serendipity.same_bibid_penalty", cfg.SameBibPenalty)
	cfg.SameTitlePenalty = getFloat(src, "serendipity.same_title_penalty", cfg.SameTitlePenalty)
	cfg.SameTitleMode = ParseSameTitleMode(getString(src, "serendipity.same_title_mode", string(cfg.SameTitleMode)))

	if raw, ok := src.Get("title_volume_separators"); ok {
		cfg.TitleVolumeSeparators = parseSeparators(raw)
	}

	cfg.MultiMatch = getBool(src, "multi_match.enable", cfg.MultiMatch)
	cfg.MultiMatchDecay = getFloat(src, "multi_match.decay", cfg.MultiMatchDecay)
	if !isFinite(cfg.MultiMatchDecay) || cfg.MultiMatchDecay < 0 {
		cfg.MultiMatchDecay = 0
	}

	cfg.Jitter = getBool(src, "jitter.enable", cfg.Jitter)
	cfg.JitterPoolMultiplier = getFloat(src, "jitter.pool_multiplier", cfg.JitterPoolMultiplier)
	if !isFinite(cfg.JitterPoolMultiplier) || cfg.JitterPoolMultiplier < 1 {
		cfg.JitterPoolMultiplier = 1
	}

	cfg.ShelfExpand = getBool(src, "shelf_expand.enable", cfg.ShelfExpand)
	cfg.ShelfExpandLimit = getInt(src, "shelf_expand.limit", cfg.ShelfExpandLimit)
	if cfg.ShelfExpandLimit <= 0 {
		cfg.ShelfExpandLimit = Defaults().ShelfExpandLimit
	}

	return cfg
}

// ParseTieBreak validates a tie-break policy name, defaulting to none.
func ParseTieBreak(s string) TieBreakPolicy {
	switch TieBreakPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case TieBreakConsensus:
		return TieBreakConsensus
	case TieBreakStrength:
		return TieBreakStrength
	case TieBreakIdentity:
		return TieBreakIdentity
	default:
		return TieBreakNone
	}
}

// ParseSameTitleMode validates a diversification mode, defaulting to allow.
func ParseSameTitleMode(s string) SameTitleMode {
	switch SameTitleMode(strings.ToLower(strings.TrimSpace(s))) {
	case SameTitleExclude:
		return SameTitleExclude
	case SameTitleExcludeNoFallback:
		return SameTitleExcludeNoFallback
	default:
		return SameTitleAllow
	}
}

var sepWhitespaceRe = regexp.MustCompile(`[\s　]+`)

// parseSeparators splits the raw separator setting into one separator per
// line. Leading and trailing spaces are significant (" , " must not match
// a bare comma), so only interior whitespace runs are collapsed and
// whitespace-only lines dropped.
func parseSeparators(raw string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, sepWhitespaceRe.ReplaceAllString(line, " "))
	}
	return out
}

func getString(src Source, key, def string) string {
	if v, ok := src.Get(key); ok {
		return v
	}
	return def
}

func getInt(src Source, key string, def int) int {
	v, ok := src.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func getFloat(src Source, key string, def float64) float64 {
	v, ok := src.Get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// getBool treats "1", "true", "yes", "on" as true and "0", "false", "no",
// "off" as false; anything else keeps the default.
func getBool(src Source, key string, def bool) bool {
	v, ok := src.Get(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
