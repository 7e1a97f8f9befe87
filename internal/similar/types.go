// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"github.com/hondana-dev/similaria/internal/catalog"
)

// SignalKind identifies a scoring signal. Each kind belongs to a fixed
// tie-break tier, assigned here rather than parsed from labels at sort time.
type SignalKind int

const (
	// Identity signals.
	SignalBibID SignalKind = iota
	SignalNCID
	SignalAuthorID
	SignalAuthorizedName

	// Topical signals.
	SignalSubject
	SignalBucket

	// Shelving signals.
	SignalShelf
	SignalClassProximity
	SignalClassExact

	// Weak signals.
	SignalMaterialType
	SignalIssuedProximity
	SignalCollections

	// Tierless signals.
	SignalSeriesTitle
	SignalPublisher
	SignalPublicationPlace
	SignalMultiMatch

	// Penalties.
	SignalSameBibPenalty
	SignalSameTitlePenalty

	// Zero-weight provenance markers.
	SignalBucketExpand
	SignalShelfExpand
	SignalRandomFallback
)

// Tier is a tie-break tier used by the identity policy. Lower tiers are
// stronger evidence of sameness.
type Tier int

const (
	TierNone Tier = iota
	TierIdentity
	TierTopical
	TierShelving
	TierWeak
)

// Tier returns the tie-break tier of the signal kind.
func (k SignalKind) Tier() Tier {
	switch k {
	case SignalNCID, SignalAuthorID, SignalAuthorizedName:
		return TierIdentity
	case SignalSubject, SignalBucket:
		return TierTopical
	case SignalShelf, SignalClassProximity, SignalClassExact:
		return TierShelving
	case SignalMaterialType, SignalIssuedProximity, SignalCollections:
		return TierWeak
	default:
		return TierNone
	}
}

// String returns the canonical label of the signal kind.
func (k SignalKind) String() string {
	switch k {
	case SignalBibID:
		return "bibid"
	case SignalNCID:
		return "ncid"
	case SignalAuthorID:
		return "author_id"
	case SignalAuthorizedName:
		return "authorized_name"
	case SignalSubject:
		return "subject"
	case SignalBucket:
		return "bucket"
	case SignalShelf:
		return "shelf"
	case SignalClassProximity:
		return "class_proximity"
	case SignalClassExact:
		return "class_exact"
	case SignalMaterialType:
		return "material_type"
	case SignalIssuedProximity:
		return "issued_proximity"
	case SignalCollections:
		return "collections"
	case SignalSeriesTitle:
		return "series_title"
	case SignalPublisher:
		return "publisher"
	case SignalPublicationPlace:
		return "publication_place"
	case SignalMultiMatch:
		return "multi_match"
	case SignalSameBibPenalty:
		return "same_bibid_penalty"
	case SignalSameTitlePenalty:
		return "same_title_penalty"
	case SignalBucketExpand:
		return "bucket_expand"
	case SignalShelfExpand:
		return "shelf_expand"
	case SignalRandomFallback:
		return "random_fallback"
	default:
		return "unknown"
	}
}

// Signal is one scored contribution to a candidate, kept as an audit trail.
// Detail carries the bucket key for expansion markers and the base field
// label for multi-match bonuses.
type Signal struct {
	Kind   SignalKind `json:"kind"`
	Detail string     `json:"detail,omitempty"`
	Delta  float64    `json:"delta"`
}

// Label renders the signal for debug output, e.g. "subject",
// "subject_multi", or "bucket_expand:history".
func (s Signal) Label() string {
	switch s.Kind {
	case SignalMultiMatch:
		return s.Detail + "_multi"
	case SignalBucketExpand:
		return "bucket_expand:" + s.Detail
	default:
		return s.Kind.String()
	}
}

// Request asks the engine for items similar to a seed item.
type Request struct {
	// ItemID is the seed item.
	ItemID int64

	// Limit is the number of results wanted. Zero means the configured
	// default; negative or absurd values are clamped.
	Limit int

	// SiteID scopes candidate searches to a site. Zero disables scoping
	// regardless of the scope_site setting.
	SiteID int64

	// TieBreak overrides the configured tie-break policy when non-empty.
	TieBreak string

	// CollectionWeight overrides the configured shared-collection weight.
	CollectionWeight *float64

	// CollectionsSeedOnly uses collections for candidate seeding but
	// suppresses their scoring weight.
	CollectionsSeedOnly bool

	// Debug includes resolved seed and per-candidate values in the response.
	Debug bool

	// Seed fixes the request RNG for reproducible jitter and sampling.
	// Zero draws a random seed.
	Seed int64
}

// Result is one recommended item with its score audit trail.
type Result struct {
	Item      catalog.Item `json:"item"`
	Score     float64      `json:"score"`
	Signals   []Signal     `json:"signals,omitempty"`
	BaseTitle string       `json:"base_title,omitempty"`

	// Debug holds resolved property values; populated only for debug
	// requests.
	Debug *DebugValues `json:"debug,omitempty"`
}

// DebugValues exposes the resolved metadata a candidate was scored on.
type DebugValues struct {
	Properties  map[string][]string `json:"properties,omitempty"`
	Buckets     []string            `json:"buckets,omitempty"`
	Shelf       string              `json:"shelf,omitempty"`
	ClassPrefix string              `json:"class_prefix,omitempty"`
	ClassNumber *int                `json:"class_number,omitempty"`
}

// SeedDebug describes how the engine read the seed item.
type SeedDebug struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	BaseTitle string       `json:"base_title"`
	Buckets   []string     `json:"buckets"`
	Values    *DebugValues `json:"values,omitempty"`
}

// Response is the engine output for one request.
type Response struct {
	Results []Result `json:"results"`

	// Candidates is the pool size before ranking and truncation.
	Candidates int `json:"candidates"`

	// Seed is the RNG seed used, for replaying jittered orders.
	Seed int64 `json:"seed"`

	// SeedItem is populated for debug requests.
	SeedItem *SeedDebug `json:"seed_item,omitempty"`
}

// candidate is the mutable per-item accumulator used during generation and
// scoring. The credited set carries the per-property-term "base weight
// applied" markers so a term never scores twice for one candidate.
type candidate struct {
	item      catalog.Item
	score     float64
	signals   []Signal
	credited  map[string]bool
	baseTitle string

	// tie-break stats, filled by rank
	uniq   int
	maxPos float64
	tiers  [4]bool

	// jitter ordinal, drawn per request when ordering jitter is on
	rand float64

	// resolved values for debug responses
	debug *DebugValues
}

func newCandidate(item catalog.Item) *candidate {
	return &candidate{item: item, credited: make(map[string]bool)}
}

// addSignal records a scoring contribution.
func (c *candidate) addSignal(kind SignalKind, detail string, delta float64) {
	c.score += delta
	c.signals = append(c.signals, Signal{Kind: kind, Detail: detail, Delta: delta})
}

// creditProperty applies the base weight for a property term exactly once.
// Returns false when the term was already credited.
func (c *candidate) creditProperty(kind SignalKind, term string, weight float64) bool {
	if c.credited[term] {
		return false
	}
	c.credited[term] = true
	c.addSignal(kind, "", weight)
	return true
}
