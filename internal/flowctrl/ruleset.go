// internal/flowctrl/ruleset.go
package flowctrl

import (
	"strconv"
	"strings"
)

/*
 * Rule sets and their canonical text.
 *
 * Canonical form iterates Categories in fixed order, emits each non-empty
 * category as {"type":N,"rule":[...]} and wraps the list in [...]. The
 * number of emitted categories is the record's rule count. Canonical text
 * is what the store keeps and what Modify compares; re-parsing it yields a
 * RuleSet equal to the one it came from.
 */

// EmptyCanonical is the canonical text of an empty rule set.
const EmptyCanonical = "[]"

// RuleSet maps a category to its ordered items.
type RuleSet map[Category][]Item

// Add appends item to its category.
func (rs RuleSet) Add(item Item) {
	cat := item.Category()
	rs[cat] = append(rs[cat], item)
}

// Items returns the items of cat in input order.
func (rs RuleSet) Items(cat Category) []Item {
	return rs[cat]
}

// RuleCount returns the number of non-empty categories.
func (rs RuleSet) RuleCount() int {
	n := 0
	for _, cat := range Categories {
		if len(rs[cat]) > 0 {
			n++
		}
	}
	return n
}

// Canonical serializes rs and returns the text with the count of emitted categories.
func (rs RuleSet) Canonical() (string, int) {
	var sb strings.Builder
	sb.WriteByte('[')
	ruleCnt := 0
	buf := make([]byte, 0, defaultItemJSONBufferSize)
	for _, cat := range Categories {
		items := rs[cat]
		if len(items) == 0 {
			continue
		}
		if ruleCnt > 0 {
			sb.WriteByte(',')
		}
		ruleCnt++
		sb.WriteString(`{"type":`)
		sb.WriteString(strconv.Itoa(int(cat)))
		sb.WriteString(`,"rule":[`)
		for i, item := range items {
			if i > 0 {
				sb.WriteByte(',')
			}
			buf = item.AppendJSON(buf[:0])
			sb.Write(buf)
		}
		sb.WriteString("]}")
	}
	sb.WriteByte(']')
	return sb.String(), ruleCnt
}

// ParseRuleSet parses request rule text. Blank input is an empty rule set,
// not an error.
func ParseRuleSet(raw string) (RuleSet, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return RuleSet{}, nil
	}
	return ParseFlowCtrlInfo(text)
}

// CanonicalText parses raw and returns its canonical text and rule count.
func CanonicalText(raw string) (string, int, error) {
	rs, err := ParseRuleSet(raw)
	if err != nil {
		return "", 0, err
	}
	text, ruleCnt := rs.Canonical()
	return text, ruleCnt, nil
}
