package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	topLevelKeys = map[string]struct{}{"items": {}, "client_name_hint": {}, "work_date_hint": {}, "notes": {}}
	itemKeys     = map[string]struct{}{"item_ref": {}, "quantity": {}, "unit": {}, "notes": {}}
)

// Sanitize repairs common model mistakes so the document can pass the schema:
// numeric strings become numbers, null or empty optionals are dropped and so are
// unknown keys (prices included). Items without a usable reference or quantity
// are removed. It returns the cleaned document and the names of what changed.
func Sanitize(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	for k := range m {
		if _, ok := topLevelKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}
	for _, k := range []string{"client_name_hint", "notes"} {
		if !keepString(m, k) {
			dropped = append(dropped, k+"(empty)")
		}
	}
	if v, ok := m["work_date_hint"]; ok {
		s, _ := v.(string)
		s = strings.TrimSpace(s)
		if !reDate.MatchString(s) {
			delete(m, "work_date_hint")
			dropped = append(dropped, "work_date_hint(format)")
		} else {
			m["work_date_hint"] = s
		}
	}

	raw, _ := m["items"].([]any)
	items := make([]any, 0, len(raw))
	for i, v := range raw {
		item, ok := v.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("items[%d](type)", i))
			continue
		}
		for k := range item {
			if _, ok := itemKeys[k]; !ok {
				delete(item, k)
				dropped = append(dropped, fmt.Sprintf("items[%d].%s(unknown)", i, k))
			}
		}
		if _, ok := item["item_ref"]; !ok || !keepString(item, "item_ref") {
			dropped = append(dropped, fmt.Sprintf("items[%d](no item_ref)", i))
			continue
		}
		qty, ok := coerceNumber(item["quantity"])
		if !ok {
			dropped = append(dropped, fmt.Sprintf("items[%d](no quantity)", i))
			continue
		}
		item["quantity"] = qty
		for _, k := range []string{"unit", "notes"} {
			if !keepString(item, k) {
				dropped = append(dropped, fmt.Sprintf("items[%d].%s(empty)", i, k))
			}
		}
		items = append(items, item)
	}
	m["items"] = items

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}

// keepString trims m[k] in place and deletes it when it is not a non-empty
// string. It reports false when the key was present and got deleted.
func keepString(m map[string]any, k string) bool {
	v, ok := m[k]
	if !ok {
		return true
	}
	s, isString := v.(string)
	s = strings.TrimSpace(s)
	if !isString || s == "" || strings.EqualFold(s, "null") {
		delete(m, k)
		return false
	}
	m[k] = s
	return true
}

func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
