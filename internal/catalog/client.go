// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/hondana-dev/similaria/internal/logging"
	"github.com/hondana-dev/similaria/internal/metrics"
)

// totalResultsHeader carries the unwindowed match count on search responses.
const totalResultsHeader = "Omeka-S-Total-Results"

// ClientConfig configures the HTTP catalog client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://catalog.example.org/api".
	BaseURL string

	// KeyIdentity and KeyCredential are optional API credentials.
	KeyIdentity   string
	KeyCredential string

	// Timeout bounds each HTTP request. Default: 10s.
	Timeout time.Duration
}

// Client implements Store over an Omeka-S-compatible REST API.
//
// All calls pass through a circuit breaker so a failing catalog degrades
// requests quickly instead of stacking up timeouts.
type Client struct {
	cfg     ClientConfig
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger

	propMu  sync.RWMutex
	propIDs map[string]int64
}

// NewClient creates a catalog client for the given API root.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	logger := logging.WithComponent("catalog")
	settings := gobreaker.Settings{
		Name:    "catalog-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing item is a valid answer, not an upstream outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.StoreCircuitOpen.Set(1)
			} else {
				metrics.StoreCircuitOpen.Set(0)
			}
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("catalog circuit breaker state change")
		},
	}
	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:  logger,
		propIDs: make(map[string]int64),
	}
}

// GetItem implements Store.
func (c *Client) GetItem(ctx context.Context, id int64) (*Item, error) {
	start := time.Now()
	body, err := c.get(ctx, fmt.Sprintf("/items/%d", id), nil)
	metrics.RecordStoreRequest("get_item", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	item, err := decodeItem(body)
	if err != nil {
		return nil, fmt.Errorf("decode item %d: %w", id, err)
	}
	return item, nil
}

// SearchItems implements Store.
func (c *Client) SearchItems(ctx context.Context, q Query) ([]Item, error) {
	start := time.Now()
	body, err := c.get(ctx, "/items", c.encodeQuery(ctx, q))
	metrics.RecordStoreRequest("search_items", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	items := make([]Item, 0, len(raws))
	for _, raw := range raws {
		item, err := decodeItem(raw)
		if err != nil {
			// One malformed record should not sink the whole page.
			c.logger.Warn().Err(err).Msg("skipping undecodable item")
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

// CountItems implements Store. The total comes from the search response
// header, so only a single-record window is fetched.
func (c *Client) CountItems(ctx context.Context, q Query) (int, error) {
	q.Limit = 0
	q.Page = 1
	q.PerPage = 1
	start := time.Now()
	vals := c.encodeQuery(ctx, q)
	total := -1
	body, err := c.getWithResponse(ctx, "/items", vals, func(resp *http.Response) {
		if h := resp.Header.Get(totalResultsHeader); h != "" {
			if n, perr := strconv.Atoi(h); perr == nil {
				total = n
			}
		}
	})
	metrics.RecordStoreRequest("count_items", err, time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	if total >= 0 {
		return total, nil
	}
	// Header missing: fall back to the window length.
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return 0, fmt.Errorf("decode item list: %w", err)
	}
	return len(raws), nil
}

// resolvePropertyID resolves a property term to its numeric ID, caching the
// result for the process lifetime. Returns 0 when the term cannot be
// resolved; callers then send the raw term instead.
func (c *Client) resolvePropertyID(ctx context.Context, term string) int64 {
	if term == "" {
		return 0
	}
	c.propMu.RLock()
	id, ok := c.propIDs[term]
	c.propMu.RUnlock()
	if ok {
		metrics.StorePropertyCacheHits.Inc()
		return id
	}
	metrics.StorePropertyCacheMisses.Inc()

	start := time.Now()
	vals := url.Values{}
	vals.Set("term", term)
	vals.Set("per_page", "1")
	body, err := c.get(ctx, "/properties", vals)
	metrics.RecordStoreRequest("resolve_property", err, time.Since(start))
	if err != nil {
		c.logger.Warn().Err(err).Str("term", term).Msg("property resolution failed")
		return 0
	}
	var props []struct {
		ID int64 `json:"o:id"`
	}
	if err := json.Unmarshal(body, &props); err != nil || len(props) == 0 {
		c.logger.Debug().Str("term", term).Msg("property term not found")
		return 0
	}
	c.propMu.Lock()
	c.propIDs[term] = props[0].ID
	c.propMu.Unlock()
	return props[0].ID
}

// encodeQuery translates a Query into Omeka-S search parameters.
func (c *Client) encodeQuery(ctx context.Context, q Query) url.Values {
	vals := url.Values{}
	for i, p := range q.Properties {
		prefix := fmt.Sprintf("property[%d]", i)
		if id := c.resolvePropertyID(ctx, p.Term); id > 0 {
			vals.Set(prefix+"[property]", strconv.FormatInt(id, 10))
		} else {
			vals.Set(prefix+"[property]", p.Term)
		}
		vals.Set(prefix+"[type]", string(p.Op))
		vals.Set(prefix+"[text]", p.Text)
	}
	for _, cid := range q.Collections {
		vals.Add("item_set_id[]", strconv.FormatInt(cid, 10))
	}
	if q.SiteID > 0 {
		vals.Set("site_id", strconv.FormatInt(q.SiteID, 10))
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		vals.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		vals.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return vals
}

// get performs a GET through the circuit breaker and returns the body.
func (c *Client) get(ctx context.Context, path string, vals url.Values) ([]byte, error) {
	return c.getWithResponse(ctx, path, vals, nil)
}

func (c *Client) getWithResponse(ctx context.Context, path string, vals url.Values, inspect func(*http.Response)) ([]byte, error) {
	if vals == nil {
		vals = url.Values{}
	}
	if c.cfg.KeyIdentity != "" {
		vals.Set("key_identity", c.cfg.KeyIdentity)
		vals.Set("key_credential", c.cfg.KeyCredential)
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if enc := vals.Encode(); enc != "" {
		u += "?" + enc
	}
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
		}
		if inspect != nil {
			inspect(resp)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	})
}

// apiValue is one value object in an Omeka-S JSON-LD property array.
type apiValue struct {
	Value        string `json:"@value"`
	DisplayTitle string `json:"display_title"`
	Label        string `json:"o:label"`
	IRI          string `json:"@id"`
}

// str picks the best textual rendering of the value: literal value first,
// then linked-resource title, then URI label, then the URI itself.
func (v apiValue) str() string {
	for _, s := range []string{v.Value, v.DisplayTitle, v.Label, v.IRI} {
		if s != "" {
			return s
		}
	}
	return ""
}

// decodeItem parses one Omeka-S JSON-LD item representation.
//
// Known "o:" keys populate the typed fields; every other namespaced key is
// treated as a property term and its value array flattened to strings.
func decodeItem(raw []byte) (*Item, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	item := &Item{Properties: make(map[string][]string)}

	if idRaw, ok := fields["o:id"]; ok {
		if err := json.Unmarshal(idRaw, &item.ID); err != nil {
			return nil, fmt.Errorf("o:id: %w", err)
		}
	}
	if item.ID == 0 {
		return nil, fmt.Errorf("item record has no o:id")
	}
	if titleRaw, ok := fields["o:title"]; ok {
		// o:title may be JSON null for untitled records.
		var title *string
		if err := json.Unmarshal(titleRaw, &title); err == nil && title != nil {
			item.Title = *title
		}
	}
	if modRaw, ok := fields["o:modified"]; ok {
		var mod struct {
			Value string `json:"@value"`
		}
		if err := json.Unmarshal(modRaw, &mod); err == nil && mod.Value != "" {
			if t, terr := time.Parse(time.RFC3339, mod.Value); terr == nil {
				item.Modified = t
			}
		}
	}
	if setsRaw, ok := fields["o:item_set"]; ok {
		var sets []struct {
			ID int64 `json:"o:id"`
		}
		if err := json.Unmarshal(setsRaw, &sets); err == nil {
			for _, s := range sets {
				if s.ID > 0 {
					item.Collections = append(item.Collections, s.ID)
				}
			}
		}
	}

	for key, val := range fields {
		if strings.HasPrefix(key, "o:") || strings.HasPrefix(key, "@") || !strings.Contains(key, ":") {
			continue
		}
		var vals []apiValue
		if err := json.Unmarshal(val, &vals); err != nil {
			continue
		}
		for _, v := range vals {
			if s := v.str(); s != "" {
				item.Properties[key] = append(item.Properties[key], s)
			}
		}
	}
	return item, nil
}
