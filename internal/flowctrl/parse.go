// internal/flowctrl/parse.go
package flowctrl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/solatis/flowkeeper/internal/types"
)

/*
 * Flow control rule grammar.
 *
 * Input is a JSON array of category entries:
 *
 *   [{"type":0,"rule":[{"start":"08:00","end":"17:59","dltInM":1024,
 *                       "limitInM":20,"freqInMs":1000}]},
 *    {"type":1,"rule":[{"zeroCnt":3,"freqInMs":300}]}]
 *
 * Entries may repeat a type; their items are appended in input order.
 * Entries with an empty rule list add nothing. Every failure is a
 * KindMalformedRule error whose message names the entry, item and field.
 *
 * Field presence is checked with pointer fields: a missing numeric field is
 * a different failure from an explicit zero. Keys must match the field names
 * exactly, including case.
 */

type rawEntry struct {
	Type *int              `json:"type"`
	Rule []json.RawMessage `json:"rule"`
}

type rawDataLimit struct {
	Start    *string `json:"start"`
	End      *string `json:"end"`
	DltInM   *int64  `json:"dltInM"`
	LimitInM *int64  `json:"limitInM"`
	FreqInMs *int    `json:"freqInMs"`
}

type rawFreqLimit struct {
	ZeroCnt  *int `json:"zeroCnt"`
	FreqInMs *int `json:"freqInMs"`
}

type rawSSDTranslate struct {
	Start    *string `json:"start"`
	End      *string `json:"end"`
	DltStInM *int64  `json:"dltStInM"`
	DltEdInM *int64  `json:"dltEdInM"`
}

type rawReqFrequency struct {
	NormFreqInMs          *int `json:"normFreqInMs"`
	FilterFreqInMs        *int `json:"filterFreqInMs"`
	MinDataFilterFreqInMs *int `json:"minDataFilterFreqInMs"`
}

// ParseFlowCtrlInfo parses rule text into a RuleSet.
// The text must not be blank; use ParseRuleSet for request input.
func ParseFlowCtrlInfo(text string) (RuleSet, error) {
	var entries []json.RawMessage
	if err := decodeStrict([]byte(text), &entries); err != nil {
		return nil, types.MalformedRule("Illegal value in flowCtrlInfo: parse rule info failure, %v", err)
	}

	set := make(RuleSet)
	for i, data := range entries {
		var entry rawEntry
		if err := decodeExact(data, &entry, "type", "rule"); err != nil {
			return nil, types.MalformedRule("Illegal value in flowCtrlInfo: entry %d, %v", i, err)
		}
		if entry.Type == nil {
			return nil, types.MalformedRule("Illegal value in flowCtrlInfo: entry %d requires type field", i)
		}
		cat := Category(*entry.Type)
		if !cat.Valid() {
			return nil, types.MalformedRule("Illegal value in flowCtrlInfo: entry %d has unsupported type %d", i, *entry.Type)
		}
		if entry.Rule == nil {
			return nil, types.MalformedRule("Illegal value in flowCtrlInfo: entry %d (type %d) requires rule field", i, cat)
		}
		for j, rawItem := range entry.Rule {
			item, err := parseItem(cat, rawItem)
			if err != nil {
				return nil, types.MalformedRule("Illegal value in flowCtrlInfo: type %d rule %d, %v", cat, j, err)
			}
			set.Add(item)
		}
	}
	return set, nil
}

func parseItem(cat Category, data json.RawMessage) (Item, error) {
	switch cat {
	case CategoryDataLimit:
		return parseDataLimit(data)
	case CategoryFreqLimit:
		return parseFreqLimit(data)
	case CategorySSDTranslate:
		return parseSSDTranslate(data)
	case CategoryReqFrequency:
		return parseReqFrequency(data)
	default:
		return nil, fmt.Errorf("unsupported type %d", cat)
	}
}

func parseDataLimit(data json.RawMessage) (Item, error) {
	var raw rawDataLimit
	if err := decodeExact(data, &raw, "start", "end", "dltInM", "limitInM", "freqInMs"); err != nil {
		return nil, err
	}
	start, end, err := parseWindow(raw.Start, raw.End)
	if err != nil {
		return nil, err
	}
	if raw.DltInM == nil || *raw.DltInM < 0 {
		return nil, fmt.Errorf("dltInM is required and must be >= 0")
	}
	if raw.LimitInM == nil || *raw.LimitInM < 0 {
		return nil, fmt.Errorf("limitInM is required and must be >= 0")
	}
	if raw.FreqInMs == nil || *raw.FreqInMs < MinDataLimitFreqInMs {
		return nil, fmt.Errorf("freqInMs is required and must be >= %d", MinDataLimitFreqInMs)
	}
	return DataLimitItem{
		Start:    start,
		End:      end,
		DltInM:   *raw.DltInM,
		LimitInM: *raw.LimitInM,
		FreqInMs: *raw.FreqInMs,
	}, nil
}

func parseFreqLimit(data json.RawMessage) (Item, error) {
	var raw rawFreqLimit
	if err := decodeExact(data, &raw, "zeroCnt", "freqInMs"); err != nil {
		return nil, err
	}
	if raw.ZeroCnt == nil || *raw.ZeroCnt < 1 {
		return nil, fmt.Errorf("zeroCnt is required and must be >= 1")
	}
	if raw.FreqInMs == nil || *raw.FreqInMs < 0 {
		return nil, fmt.Errorf("freqInMs is required and must be >= 0")
	}
	return FreqLimitItem{ZeroCnt: *raw.ZeroCnt, FreqInMs: *raw.FreqInMs}, nil
}

func parseSSDTranslate(data json.RawMessage) (Item, error) {
	var raw rawSSDTranslate
	if err := decodeExact(data, &raw, "start", "end", "dltStInM", "dltEdInM"); err != nil {
		return nil, err
	}
	start, end, err := parseWindow(raw.Start, raw.End)
	if err != nil {
		return nil, err
	}
	if raw.DltStInM == nil || *raw.DltStInM < 0 {
		return nil, fmt.Errorf("dltStInM is required and must be >= 0")
	}
	if raw.DltEdInM == nil || *raw.DltEdInM <= *raw.DltStInM {
		return nil, fmt.Errorf("dltEdInM is required and must be > dltStInM")
	}
	return SSDTranslateItem{
		Start:    start,
		End:      end,
		DltStInM: *raw.DltStInM,
		DltEdInM: *raw.DltEdInM,
	}, nil
}

func parseReqFrequency(data json.RawMessage) (Item, error) {
	var raw rawReqFrequency
	if err := decodeExact(data, &raw, "normFreqInMs", "filterFreqInMs", "minDataFilterFreqInMs"); err != nil {
		return nil, err
	}
	if raw.NormFreqInMs == nil || *raw.NormFreqInMs < 0 || *raw.NormFreqInMs > MaxReqNormFreqInMs {
		return nil, fmt.Errorf("normFreqInMs is required and must be in [0, %d]", MaxReqNormFreqInMs)
	}
	if raw.FilterFreqInMs == nil || *raw.FilterFreqInMs < 0 || *raw.FilterFreqInMs > MaxReqFilterFreqInMs {
		return nil, fmt.Errorf("filterFreqInMs is required and must be in [0, %d]", MaxReqFilterFreqInMs)
	}
	if raw.MinDataFilterFreqInMs == nil || *raw.MinDataFilterFreqInMs < *raw.FilterFreqInMs {
		return nil, fmt.Errorf("minDataFilterFreqInMs is required and must be >= filterFreqInMs")
	}
	return ReqFrequencyItem{
		NormFreqInMs:          *raw.NormFreqInMs,
		FilterFreqInMs:        *raw.FilterFreqInMs,
		MinDataFilterFreqInMs: *raw.MinDataFilterFreqInMs,
	}, nil
}

// parseWindow validates a start/end pair with start <= end.
func parseWindow(startRaw, endRaw *string) (ClockTime, ClockTime, error) {
	if startRaw == nil || endRaw == nil {
		return clockTimeInvalid, clockTimeInvalid, fmt.Errorf("start and end are required")
	}
	start, err := ParseClockTime(*startRaw)
	if err != nil {
		return clockTimeInvalid, clockTimeInvalid, fmt.Errorf("start: %w", err)
	}
	end, err := ParseClockTime(*endRaw)
	if err != nil {
		return clockTimeInvalid, clockTimeInvalid, fmt.Errorf("end: %w", err)
	}
	if start > end {
		return clockTimeInvalid, clockTimeInvalid, fmt.Errorf("start %s must not be later than end %s", start, end)
	}
	return start, end, nil
}

// decodeExact decodes a JSON object whose keys must all appear in fields.
// encoding/json matches keys case-insensitively, so keys are checked first.
func decodeExact(data []byte, v any, fields ...string) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	names := make([]string, 0, len(keys))
	for key := range keys {
		names = append(names, key)
	}
	slices.Sort(names)
	for _, key := range names {
		if !slices.Contains(fields, key) {
			return fmt.Errorf("unknown field %q", key)
		}
	}
	return decodeStrict(data, v)
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
