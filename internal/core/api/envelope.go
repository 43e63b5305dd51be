package api

import (
	"bytes"
	"encoding/json"

	"github.com/solatis/flowkeeper/internal/types"
)

// Response codes carried in errCode.
const (
	CodeOK      = 0
	CodeFailure = 400

	msgOK = "OK"
)

// Envelope is the uniform result of every admin operation.
// Query envelopes additionally carry data and count, even on failure.
type Envelope struct {
	Result  bool
	ErrCode int
	ErrMsg  string
	Data    []RecordView
	Count   int

	query bool
}

type plainEnvelope struct {
	Result  bool   `json:"result"`
	ErrCode int    `json:"errCode"`
	ErrMsg  string `json:"errMsg"`
}

type queryEnvelope struct {
	Result  bool         `json:"result"`
	ErrCode int          `json:"errCode"`
	ErrMsg  string       `json:"errMsg"`
	Data    []RecordView `json:"data"`
	Count   int          `json:"count"`
}

// MarshalJSON emits exactly result, errCode, errMsg and, for Query, data and count.
// Messages are written without HTML escaping.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if !e.query {
		return encodeJSON(plainEnvelope{Result: e.Result, ErrCode: e.ErrCode, ErrMsg: e.ErrMsg})
	}
	data := e.Data
	if data == nil {
		data = []RecordView{}
	}
	return encodeJSON(queryEnvelope{Result: e.Result, ErrCode: e.ErrCode, ErrMsg: e.ErrMsg, Data: data, Count: e.Count})
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Success returns the success envelope of Add, Delete and Modify.
func Success() Envelope {
	return Envelope{Result: true, ErrCode: CodeOK, ErrMsg: msgOK}
}

// Failure returns a failure envelope carrying err's message verbatim.
func Failure(err error) Envelope {
	return Envelope{Result: false, ErrCode: CodeFailure, ErrMsg: err.Error()}
}

// QuerySuccess returns a Query envelope holding recs.
func QuerySuccess(recs []*types.FlowControlRecord) Envelope {
	views := make([]RecordView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, NewRecordView(rec))
	}
	return Envelope{Result: true, ErrCode: CodeOK, ErrMsg: msgOK, Data: views, Count: len(views), query: true}
}

// QueryFailure returns a failed Query envelope with empty data and zero count.
func QueryFailure(err error) Envelope {
	return Envelope{Result: false, ErrCode: CodeFailure, ErrMsg: err.Error(), Data: []RecordView{}, query: true}
}

// RecordView is the JSON form of a FlowControlRecord.
// FlowCtrlInfo is embedded as JSON, not as a quoted string.
type RecordView struct {
	GroupName     string          `json:"groupName"`
	StatusID      int             `json:"statusId"`
	RuleCnt       int             `json:"ruleCnt"`
	QryPriorityID int             `json:"qryPriorityId"`
	FlowCtrlInfo  json.RawMessage `json:"flowCtrlInfo"`
	CreateUser    string          `json:"createUser"`
	CreateDate    string          `json:"createDate"`
}

// NewRecordView converts rec. Stored text that is not valid JSON is emitted as a string.
func NewRecordView(rec *types.FlowControlRecord) RecordView {
	info := json.RawMessage(rec.FlowCtrlInfo)
	if !json.Valid(info) {
		quoted, _ := json.Marshal(rec.FlowCtrlInfo)
		info = quoted
	}
	return RecordView{
		GroupName:     string(rec.GroupName),
		StatusID:      rec.StatusID,
		RuleCnt:       rec.RuleCnt,
		QryPriorityID: rec.QryPriorityID,
		FlowCtrlInfo:  info,
		CreateUser:    rec.CreateUser,
		CreateDate:    rec.CreateDate.UTC().Format(types.DateLayout),
	}
}
