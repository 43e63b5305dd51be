// internal/flowctrl/parse_test.go
package flowctrl

import (
	"strings"
	"testing"

	"github.com/solatis/flowkeeper/internal/types"
)

func TestParseFlowCtrlInfo_AllCategories(t *testing.T) {
	text := `[{"type":0,"rule":[{"start":"8:00","end":"23:59","dltInM":0,"limitInM":0,"freqInMs":200}]},
	          {"type":1,"rule":[{"zeroCnt":1,"freqInMs":0}]},
	          {"type":2,"rule":[{"start":"00:00","end":"00:00","dltStInM":0,"dltEdInM":1}]},
	          {"type":3,"rule":[{"normFreqInMs":10000,"filterFreqInMs":300000,"minDataFilterFreqInMs":300000}]}]`

	rs, err := ParseFlowCtrlInfo(text)
	if err != nil {
		t.Fatalf("ParseFlowCtrlInfo() error = %v, want nil", err)
	}
	if rs.RuleCount() != 4 {
		t.Fatalf("RuleCount() = %d, want 4", rs.RuleCount())
	}

	got := rs.Items(CategoryDataLimit)[0].(DataLimitItem)
	if got.Start != 8*60 || got.End != 23*60+59 {
		t.Errorf("DataLimitItem window = %s-%s, want 08:00-23:59", got.Start, got.End)
	}
}

func TestParseFlowCtrlInfo_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantMsg string
	}{
		{name: "not JSON", text: `type=0`, wantMsg: "parse rule info failure"},
		{name: "object instead of array", text: `{"type":0}`, wantMsg: "parse rule info failure"},
		{name: "trailing data", text: `[] []`, wantMsg: "parse rule info failure"},
		{name: "missing type", text: `[{"rule":[]}]`, wantMsg: "requires type field"},
		{name: "unknown type", text: `[{"type":4,"rule":[]}]`, wantMsg: "unsupported type 4"},
		{name: "missing rule", text: `[{"type":1}]`, wantMsg: "requires rule field"},
		{name: "unknown field", text: `[{"type":1,"rule":[{"zeroCnt":1,"freqInMs":1,"x":1}]}]`, wantMsg: "unknown field"},
		{name: "bad clock", text: `[{"type":0,"rule":[{"start":"25:00","end":"26:00","dltInM":1,"limitInM":1,"freqInMs":200}]}]`, wantMsg: "HH:mm"},
		{name: "reversed window", text: `[{"type":0,"rule":[{"start":"18:00","end":"08:00","dltInM":1,"limitInM":1,"freqInMs":200}]}]`, wantMsg: "must not be later"},
		{name: "freq too low", text: `[{"type":0,"rule":[{"start":"08:00","end":"09:00","dltInM":1,"limitInM":1,"freqInMs":199}]}]`, wantMsg: "freqInMs"},
		{name: "negative dlt", text: `[{"type":0,"rule":[{"start":"08:00","end":"09:00","dltInM":-1,"limitInM":1,"freqInMs":200}]}]`, wantMsg: "dltInM"},
		{name: "zero zeroCnt", text: `[{"type":1,"rule":[{"zeroCnt":0,"freqInMs":10}]}]`, wantMsg: "zeroCnt"},
		{name: "missing freq", text: `[{"type":1,"rule":[{"zeroCnt":2}]}]`, wantMsg: "freqInMs"},
		{name: "ssd end not after start", text: `[{"type":2,"rule":[{"start":"08:00","end":"09:00","dltStInM":5,"dltEdInM":5}]}]`, wantMsg: "dltEdInM"},
		{name: "req norm too large", text: `[{"type":3,"rule":[{"normFreqInMs":10001,"filterFreqInMs":1,"minDataFilterFreqInMs":1}]}]`, wantMsg: "normFreqInMs"},
		{name: "req min below filter", text: `[{"type":3,"rule":[{"normFreqInMs":0,"filterFreqInMs":100,"minDataFilterFreqInMs":99}]}]`, wantMsg: "minDataFilterFreqInMs"},
		{name: "entry key case mismatch", text: `[{"TYPE":1,"RULE":[{"zeroCnt":3,"freqInMs":300}]}]`, wantMsg: `unknown field "RULE"`},
		{name: "item key case mismatch", text: `[{"type":1,"rule":[{"ZEROCNT":3,"FreqInMs":300}]}]`, wantMsg: `unknown field "FreqInMs"`},
		{name: "data limit key case mismatch", text: `[{"type":0,"rule":[{"Start":"08:00","end":"09:00","dltInM":1,"limitInM":1,"freqInMs":200}]}]`, wantMsg: `unknown field "Start"`},
		{name: "entry not an object", text: `[5]`, wantMsg: "entry 0"},
		{name: "fractional value", text: `[{"type":1,"rule":[{"zeroCnt":1.5,"freqInMs":1}]}]`, wantMsg: "type 1 rule 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlowCtrlInfo(tt.text)
			if err == nil {
				t.Fatalf("ParseFlowCtrlInfo() error = nil, want %q", tt.wantMsg)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("ParseFlowCtrlInfo() error = %q, want substring %q", err.Error(), tt.wantMsg)
			}
			if types.KindOf(err) != types.KindMalformedRule {
				t.Errorf("KindOf() = %v, want %v", types.KindOf(err), types.KindMalformedRule)
			}
		})
	}
}

func TestParseRuleSet_TrimsBeforeParsing(t *testing.T) {
	rs, err := ParseRuleSet("  \n[{\"type\":1,\"rule\":[{\"zeroCnt\":3,\"freqInMs\":300}]}]\n ")
	if err != nil {
		t.Fatalf("ParseRuleSet() error = %v", err)
	}
	if rs.RuleCount() != 1 {
		t.Errorf("RuleCount() = %d, want 1", rs.RuleCount())
	}
}
