package orders

import (
	"encoding/json"

	"github.com/aquamarinepk/aqm"
)

// Merger combines a cached order with an incoming progress fragment into a
// new order, without ever importing corruption. Progress fragments come off
// the wire from an upstream with a known serialization bug that can turn
// arrays into objects keyed by numeric strings ("0", "1", ...); any record
// showing that signature, or missing a proper _id, is treated as absent.
//
// The merge runs on raw JSON maps rather than the typed model: field
// presence (partial updates) and the corruption signature are only
// observable before decoding.
type Merger struct {
	logger aqm.Logger
}

func NewMerger(logger aqm.Logger) *Merger {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Merger{logger: logger}
}

// Merge overlays the incoming fragment onto the cached order and returns a
// new order. The cached order is not mutated. An empty fragment yields a
// plain copy of the cached order (a resync merge). Merging the same
// fragment twice yields the same result as merging it once.
//
// Invalid input never aborts the merge: corrupted items and assignments are
// dropped or ignored, and any item whose payload cannot be deep-copied
// falls back to its cached value.
func (m *Merger) Merge(cached *Order, fragment json.RawMessage) *Order {
	if cached == nil {
		return nil
	}

	base, err := orderToMap(cached)
	if err != nil {
		m.logger.Error("cannot snapshot cached order for merge", "order_number", cached.Number, "error", err)
		return cached
	}

	var incoming map[string]any
	if len(fragment) > 0 {
		if err := json.Unmarshal(fragment, &incoming); err != nil {
			m.logger.Info("discarding unreadable progress fragment", "order_number", cached.Number, "error", err)
			incoming = nil
		}
	}

	// Top-level scalar overlay: incoming wins per field. Items are merged
	// structurally below; status stays derived, never copied from the wire.
	for key, value := range incoming {
		switch key {
		case "item_ids", "order_status", "_id":
			continue
		}
		base[key] = value
	}

	base["item_ids"] = m.mergeItems(cached.Number, asMapSlice(base["item_ids"]), asMapSlice(incoming["item_ids"]))

	merged, err := orderFromMap(base)
	if err != nil {
		m.logger.Error("cannot decode merged order, keeping cached value", "order_number", cached.Number, "error", err)
		return cached
	}
	return merged
}

// mergeItems walks the cached item list in order. Incoming items are looked
// up by _id; an incoming _id with no cached counterpart is ignored, since
// progress events describe work on existing items, not item creation.
func (m *Merger) mergeItems(orderNumber string, cached, incoming []map[string]any) []any {
	byID := make(map[string]map[string]any, len(incoming))
	for _, item := range incoming {
		if !validRecord(item) {
			m.logger.Info("dropping corrupted incoming item", "order_number", orderNumber)
			continue
		}
		byID[recordID(item)] = item
	}

	merged := make([]any, 0, len(cached))
	for _, item := range cached {
		if !validRecord(item) {
			m.logger.Info("dropping corrupted cached item", "order_number", orderNumber)
			continue
		}
		update, ok := byID[recordID(item)]
		if !ok {
			merged = append(merged, item)
			continue
		}
		update, err := deepCopy(update)
		if err != nil {
			m.logger.Info("cannot copy incoming item, keeping cached value", "order_number", orderNumber, "item_id", recordID(item), "error", err)
			merged = append(merged, item)
			continue
		}
		merged = append(merged, m.mergeItem(item, update))
	}
	return merged
}

// mergeItem overlays incoming item fields onto the cached item, with team
// assignments merged as a union keyed by assignment _id.
func (m *Merger) mergeItem(cached, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(cached))
	for k, v := range cached {
		out[k] = v
	}
	for k, v := range incoming {
		if k == "team_assignments" {
			continue
		}
		out[k] = v
	}

	cachedTeams := asMap(cached["team_assignments"])
	incomingTeams := asMap(incoming["team_assignments"])
	if cachedTeams == nil && incomingTeams == nil {
		return out
	}

	teams := make(map[string]any, len(cachedTeams))
	for team := range cachedTeams {
		teams[team] = m.mergeAssignments(asMapSlice(cachedTeams[team]), asMapSlice(incomingTeams[team]))
	}
	for team := range incomingTeams {
		if _, seen := cachedTeams[team]; seen {
			continue
		}
		teams[team] = m.mergeAssignments(nil, asMapSlice(incomingTeams[team]))
	}
	out["team_assignments"] = teams
	return out
}

// mergeAssignments builds the union of the two assignment lists keyed by
// _id: incoming fields overlay cached assignments sharing an _id, unmatched
// cached assignments are kept, and incoming-only assignments are appended
// in their own order. Invalid assignments on either side are excluded
// before the union.
func (m *Merger) mergeAssignments(cached, incoming []map[string]any) []any {
	valid := make([]map[string]any, 0, len(incoming))
	byID := make(map[string]map[string]any, len(incoming))
	for _, a := range incoming {
		if !validRecord(a) {
			m.logger.Info("dropping corrupted incoming assignment")
			continue
		}
		valid = append(valid, a)
		byID[recordID(a)] = a
	}

	out := make([]any, 0, len(cached)+len(valid))
	seen := make(map[string]bool, len(cached))
	for _, a := range cached {
		if !validRecord(a) {
			m.logger.Info("dropping corrupted cached assignment")
			continue
		}
		id := recordID(a)
		seen[id] = true
		update, ok := byID[id]
		if !ok {
			out = append(out, a)
			continue
		}
		overlay := make(map[string]any, len(a))
		for k, v := range a {
			overlay[k] = v
		}
		for k, v := range update {
			overlay[k] = v
		}
		out = append(out, overlay)
	}
	for _, a := range valid {
		if !seen[recordID(a)] {
			out = append(out, a)
		}
	}
	return out
}

// validRecord reports whether an item or assignment object carries a real
// string identity and does not show the indexed-object corruption
// signature (every key a numeric string).
func validRecord(record map[string]any) bool {
	if len(record) == 0 {
		return false
	}
	if numericKeysOnly(record) {
		return false
	}
	id, ok := record["_id"].(string)
	return ok && id != ""
}

func numericKeysOnly(record map[string]any) bool {
	for key := range record {
		if !numericString(key) {
			return false
		}
	}
	return true
}

func numericString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func recordID(record map[string]any) string {
	id, _ := record["_id"].(string)
	return id
}

// JSON round-trip helpers, in the style of the rehydrate pattern used for
// cross-boundary payloads elsewhere.

func orderToMap(o *Order) (map[string]any, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func orderFromMap(m map[string]any) (*Order, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out Order
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func deepCopy(m map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asMapSlice(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
