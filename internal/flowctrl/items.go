// internal/flowctrl/items.go
package flowctrl

import (
	"fmt"
	"strconv"
	"time"
)

/*
 * Typed flow control rule items.
 *
 * A rule set is bucketed by Category. Each category has exactly one item
 * type. Items are plain comparable structs so two parses of the same text
 * compare equal with ==.
 *
 * Categories:
 *   - 0 data limit: throttle fetch size inside a daily time window once the
 *     consumer lag exceeds dltInM megabytes
 *   - 1 frequency limit: back off freqInMs after zeroCnt consecutive empty fetches
 *   - 2 SSD translate: legacy lag window that moved reads to SSD
 *   - 3 request frequency: minimum interval between fetch requests
 *
 * Serialization: AppendJSON writes fields in a fixed order. The canonical
 * rule text stored per group and compared by Modify depends on that order,
 * so encoding/json struct reflection is not used for output.
 */

// Category identifies a rule bucket.
type Category int

const (
	CategoryDataLimit    Category = 0
	CategoryFreqLimit    Category = 1
	CategorySSDTranslate Category = 2
	CategoryReqFrequency Category = 3
)

// Categories is the serialization order of a rule set. Part of the wire contract.
var Categories = [...]Category{
	CategoryDataLimit,
	CategoryFreqLimit,
	CategorySSDTranslate,
	CategoryReqFrequency,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c >= CategoryDataLimit && c <= CategoryReqFrequency
}

// Item is one rule of a category.
type Item interface {
	Category() Category
	AppendJSON(buf []byte) []byte
}

// Limits applied by the grammar.
const (
	MinDataLimitFreqInMs      = 200
	MaxReqNormFreqInMs        = 10000
	MaxReqFilterFreqInMs      = 300000
	clockLayout               = "15:04"
	clockTimeInvalid          = ClockTime(-1)
	defaultItemJSONBufferSize = 96
)

// ClockTime is a time of day in minutes since midnight.
type ClockTime int

// ParseClockTime parses an HH:mm value.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return clockTimeInvalid, fmt.Errorf("time value %q must be in HH:mm format", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// String formats c as HH:mm.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// DataLimitItem throttles fetches inside [Start, End] once lag exceeds DltInM.
type DataLimitItem struct {
	Start    ClockTime
	End      ClockTime
	DltInM   int64 // lag threshold in MB
	LimitInM int64 // per-fetch limit in MB
	FreqInMs int   // fetch interval once limited
}

func (DataLimitItem) Category() Category { return CategoryDataLimit }

func (i DataLimitItem) AppendJSON(buf []byte) []byte {
	buf = append(buf, `{"start":"`...)
	buf = append(buf, i.Start.String()...)
	buf = append(buf, `","end":"`...)
	buf = append(buf, i.End.String()...)
	buf = append(buf, `","dltInM":`...)
	buf = strconv.AppendInt(buf, i.DltInM, 10)
	buf = append(buf, `,"limitInM":`...)
	buf = strconv.AppendInt(buf, i.LimitInM, 10)
	buf = append(buf, `,"freqInMs":`...)
	buf = strconv.AppendInt(buf, int64(i.FreqInMs), 10)
	return append(buf, '}')
}

// FreqLimitItem backs off FreqInMs after ZeroCnt consecutive empty fetches.
type FreqLimitItem struct {
	ZeroCnt  int
	FreqInMs int
}

func (FreqLimitItem) Category() Category { return CategoryFreqLimit }

func (i FreqLimitItem) AppendJSON(buf []byte) []byte {
	buf = append(buf, `{"zeroCnt":`...)
	buf = strconv.AppendInt(buf, int64(i.ZeroCnt), 10)
	buf = append(buf, `,"freqInMs":`...)
	buf = strconv.AppendInt(buf, int64(i.FreqInMs), 10)
	return append(buf, '}')
}

// SSDTranslateItem is the legacy SSD lag window.
type SSDTranslateItem struct {
	Start    ClockTime
	End      ClockTime
	DltStInM int64
	DltEdInM int64
}

func (SSDTranslateItem) Category() Category { return CategorySSDTranslate }

func (i SSDTranslateItem) AppendJSON(buf []byte) []byte {
	buf = append(buf, `{"start":"`...)
	buf = append(buf, i.Start.String()...)
	buf = append(buf, `","end":"`...)
	buf = append(buf, i.End.String()...)
	buf = append(buf, `","dltStInM":`...)
	buf = strconv.AppendInt(buf, i.DltStInM, 10)
	buf = append(buf, `,"dltEdInM":`...)
	buf = strconv.AppendInt(buf, i.DltEdInM, 10)
	return append(buf, '}')
}

// ReqFrequencyItem bounds how often a consumer may issue fetch requests.
type ReqFrequencyItem struct {
	NormFreqInMs          int
	FilterFreqInMs        int
	MinDataFilterFreqInMs int
}

func (ReqFrequencyItem) Category() Category { return CategoryReqFrequency }

func (i ReqFrequencyItem) AppendJSON(buf []byte) []byte {
	buf = append(buf, `{"normFreqInMs":`...)
	buf = strconv.AppendInt(buf, int64(i.NormFreqInMs), 10)
	buf = append(buf, `,"filterFreqInMs":`...)
	buf = strconv.AppendInt(buf, int64(i.FilterFreqInMs), 10)
	buf = append(buf, `,"minDataFilterFreqInMs":`...)
	buf = strconv.AppendInt(buf, int64(i.MinDataFilterFreqInMs), 10)
	return append(buf, '}')
}

// ItemString returns the JSON form of a single item.
func ItemString(item Item) string {
	return string(item.AppendJSON(make([]byte, 0, defaultItemJSONBufferSize)))
}
