// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package similar

import (
	"strings"

	"github.com/hondana-dev/similaria/internal/catalog"
)

// scorer applies the weighted overlap scoring to each candidate. All seed
// facets are resolved once at construction; candidates are scored
// independently after that.
type scorer struct {
	cfg   *Config
	sig   Signals
	rules *RuleDoc

	seedBuckets   []string
	seedCC        callClass
	seedBase      string
	seedColl      map[int64]bool
	seedYear      int
	seedHasYear   bool
	applyCollW    bool
	collWeight    float64
	titlePenalty  float64 // zero when same-bib demotion is off
	collectDebug  bool
}

func newScorer(cfg *Config, sig Signals, rules *RuleDoc, seed *catalog.Item, seedBuckets []string, applyCollW bool, collWeight float64, collectDebug bool) *scorer {
	s := &scorer{
		cfg:          cfg,
		sig:          sig,
		rules:        rules,
		seedBuckets:  seedBuckets,
		seedCC:       parseCallAndClass(sig.Call, sig.Class),
		seedBase:     NormalizeTitleBase(seed.Title, cfg.TitleVolumeSeparators),
		applyCollW:   applyCollW,
		collWeight:   collWeight,
		collectDebug: collectDebug,
	}
	// Same-title penalty rides on the same-bib demotion switch: with
	// demotion off, a positive bib weight must not be offset by the
	// title penalty.
	if cfg.DemoteSameBib && cfg.SameTitlePenalty > 0 {
		s.titlePenalty = cfg.SameTitlePenalty
	}
	if cfg.UseCollections && len(seed.Collections) > 0 {
		s.seedColl = make(map[int64]bool, len(seed.Collections))
		for _, c := range seed.Collections {
			s.seedColl[c] = true
		}
	}
	s.seedYear, s.seedHasYear = parseYear(sig.Issued)
	return s
}

// equalFold compares two values case-insensitively after trimming.
func equalFold(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.ToLower(a) == strings.ToLower(b)
}

// applyOverlap credits the base property weight when the seed and
// candidate value sets intersect. Terms already credited during candidate
// collection are skipped, so each term scores at most once.
func applyOverlap(c *candidate, kind SignalKind, term string, weight float64, seedVals, candVals []string) {
	if term == "" || weight == 0 {
		return
	}
	if len(seedVals) == 0 || len(candVals) == 0 {
		return
	}
	if c.credited[term] {
		return
	}
	if intersectCount(seedVals, candVals) < 1 {
		return
	}
	c.creditProperty(kind, term, weight)
}

// multiBonus returns the decayed bonus for 2nd and further shared values:
// (n-1) * weight * decay when the intersection has n >= 2 values, else 0.
// The first match is covered by the base overlap weight.
func (s *scorer) multiBonus(seedVals, candVals []string, weight float64) float64 {
	if !s.cfg.MultiMatch || weight == 0 {
		return 0
	}
	if len(seedVals) == 0 || len(candVals) == 0 {
		return 0
	}
	n := intersectCount(seedVals, candVals)
	if n < 2 {
		return 0
	}
	return float64(n-1) * weight * s.cfg.MultiMatchDecay
}

// score applies every scoring rule to the candidate in fixed order.
func (s *scorer) score(c *candidate) {
	cfg, f, w := s.cfg, s.cfg.Fields, s.cfg.Weights
	it := &c.item

	// Base title, for diversification and the same-title penalty.
	c.baseTitle = NormalizeTitleBase(it.Title, cfg.TitleVolumeSeparators)
	if s.seedBase != "" && s.titlePenalty > 0 && c.baseTitle != "" && c.baseTitle == s.seedBase {
		c.addSignal(SignalSameTitlePenalty, "", -s.titlePenalty)
	}

	// Same-bib demotion.
	if cfg.DemoteSameBib && f.BibID != "" {
		candBib := it.FirstValue(f.BibID)
		if s.sig.BibID != "" && candBib != "" && candBib == s.sig.BibID {
			c.addSignal(SignalSameBibPenalty, "", -cfg.SameBibPenalty)
		}
	}

	// Property overlaps. Bib ID only scores positively when demotion is
	// off; the other identity and descriptive fields always participate.
	if !cfg.DemoteSameBib && s.sig.BibID != "" {
		applyOverlap(c, SignalBibID, f.BibID, w.BibID, []string{s.sig.BibID}, []string{it.FirstValue(f.BibID)})
	}
	if s.sig.NCID != "" {
		applyOverlap(c, SignalNCID, f.NCID, w.NCID, []string{s.sig.NCID}, it.Values(f.NCID))
	}
	applyOverlap(c, SignalAuthorID, f.AuthorID, w.AuthorID, s.sig.AuthorIDs, it.Values(f.AuthorID))
	applyOverlap(c, SignalAuthorizedName, f.AuthorizedName, w.AuthorizedName, s.sig.AuthorizedNames, it.Values(f.AuthorizedName))
	applyOverlap(c, SignalSubject, f.Subject, w.Subject, s.sig.Subjects, it.Values(f.Subject))
	applyOverlap(c, SignalSeriesTitle, f.SeriesTitle, w.SeriesTitle, s.sig.SeriesTitles, it.Values(f.SeriesTitle))
	applyOverlap(c, SignalPublisher, f.Publisher, w.Publisher, s.sig.Publishers, it.Values(f.Publisher))

	// Bucket overlap.
	candCall := it.FirstValue(f.CallNumber)
	candClass := it.FirstValue(f.ClassNumber)
	var candBuckets []string
	if s.rules != nil {
		candBuckets = s.rules.Classify(candCall, candClass)
	}
	if w.Bucket != 0 && len(s.seedBuckets) > 0 && len(candBuckets) > 0 {
		if intersectCount(s.seedBuckets, candBuckets) > 0 {
			c.addSignal(SignalBucket, "", w.Bucket)
		}
	}

	// Shelf equality and classification proximity. Proximity only applies
	// within the same non-numeric prefix: ル185 and ル190 are neighbors,
	// ル185 and ホ190 are not.
	candCC := parseCallAndClass(candCall, candClass)
	if w.Shelf != 0 && s.seedCC.shelf != "" && candCC.shelf != "" && s.seedCC.shelf == candCC.shelf {
		c.addSignal(SignalShelf, "", w.Shelf)
	}
	if s.seedCC.hasClassNum && candCC.hasClassNum && s.seedCC.classPrefix == candCC.classPrefix {
		diff := s.seedCC.classNum - candCC.classNum
		if diff < 0 {
			diff = -diff
		}
		if w.ClassProximity != 0 && diff <= cfg.ClassProximityThreshold {
			c.addSignal(SignalClassProximity, "", w.ClassProximity)
		}
		if w.ClassExact != 0 && diff == 0 {
			c.addSignal(SignalClassExact, "", w.ClassExact)
		}
	}

	// Light boosts: material type, publication place, issued proximity.
	if w.MaterialType != 0 && f.MaterialType != "" && equalFold(s.sig.Material, it.FirstValue(f.MaterialType)) {
		c.addSignal(SignalMaterialType, "", w.MaterialType)
	}
	if w.PublicationPlace != 0 && f.Location != "" && equalFold(s.sig.Location, it.FirstValue(f.Location)) {
		c.addSignal(SignalPublicationPlace, "", w.PublicationPlace)
	}
	if w.IssuedProximity != 0 && f.Issued != "" && cfg.IssuedProximityThreshold >= 0 && s.seedHasYear {
		if candYear, ok := parseYear(it.FirstValue(f.Issued)); ok {
			diff := s.seedYear - candYear
			if diff < 0 {
				diff = -diff
			}
			if diff <= cfg.IssuedProximityThreshold {
				c.addSignal(SignalIssuedProximity, "", w.IssuedProximity)
			}
		}
	}

	// Shared collections.
	if s.applyCollW && len(s.seedColl) > 0 && it.SharesCollection(s.seedColl) {
		c.addSignal(SignalCollections, "", s.collWeight)
	}

	// Multi-match bonuses for multi-valued fields.
	if s.cfg.MultiMatch {
		s.applyMultiBonus(c, SignalAuthorID, f.AuthorID, w.AuthorID, s.sig.AuthorIDs)
		s.applyMultiBonus(c, SignalAuthorizedName, f.AuthorizedName, w.AuthorizedName, s.sig.AuthorizedNames)
		s.applyMultiBonus(c, SignalSubject, f.Subject, w.Subject, s.sig.Subjects)
		s.applyMultiBonus(c, SignalSeriesTitle, f.SeriesTitle, w.SeriesTitle, s.sig.SeriesTitles)
		s.applyMultiBonus(c, SignalPublisher, f.Publisher, w.Publisher, s.sig.Publishers)
	}

	if s.collectDebug {
		c.debug = s.debugValues(it, candBuckets, candCC)
	}
}

func (s *scorer) applyMultiBonus(c *candidate, kind SignalKind, term string, weight float64, seedVals []string) {
	if term == "" || len(seedVals) == 0 {
		return
	}
	if delta := s.multiBonus(seedVals, c.item.Values(term), weight); delta != 0 {
		c.addSignal(SignalMultiMatch, kind.String(), delta)
	}
}

// debugValues collects the resolved metadata a candidate was scored on.
func (s *scorer) debugValues(it *catalog.Item, buckets []string, cc callClass) *DebugValues {
	f := s.cfg.Fields
	props := make(map[string][]string)
	for _, term := range []string{
		f.BibID, f.NCID, f.AuthorID, f.AuthorizedName, f.Subject,
		f.SeriesTitle, f.Publisher, f.CallNumber, f.ClassNumber,
		f.Location, f.Issued, f.MaterialType, f.ViewingDirection,
	} {
		if term == "" {
			continue
		}
		if vals := it.Values(term); len(vals) > 0 {
			props[term] = vals
		}
	}
	dv := &DebugValues{
		Properties:  props,
		Buckets:     buckets,
		Shelf:       cc.shelf,
		ClassPrefix: cc.classPrefix,
	}
	if cc.hasClassNum {
		n := cc.classNum
		dv.ClassNumber = &n
	}
	return dv
}
