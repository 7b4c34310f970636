package protocol

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/k1networth/orderflow/internal/shared/errs"
)

// Entry field names shared by gateway and workers.
const (
	FieldData          = "data"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldPublishedAt   = "published_at"
	FieldStatus        = "status"
	FieldError         = "error"
)

// WorkItem is one domain request published by the gateway.
type WorkItem struct {
	CorrelationID string
	RequestID     string
	PublishedAt   time.Time
	Payload       json.RawMessage
}

func NewWorkItem(correlationID, requestID string, payload any) (WorkItem, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WorkItem{}, errs.E(errs.ErrValidation, "protocol.encode_work_item", err)
	}
	return WorkItem{
		CorrelationID: correlationID,
		RequestID:     requestID,
		PublishedAt:   time.Now().UTC(),
		Payload:       raw,
	}, nil
}

func (w WorkItem) Fields() map[string]string {
	f := map[string]string{
		FieldData:          string(w.Payload),
		FieldCorrelationID: w.CorrelationID,
	}
	if w.RequestID != "" {
		f[FieldRequestID] = w.RequestID
	}
	if !w.PublishedAt.IsZero() {
		f[FieldPublishedAt] = w.PublishedAt.Format(time.RFC3339Nano)
	}
	return f
}

// DecodeWorkItem reads a work item entry. The correlation id is returned even when the
// payload is unusable so the failure can still be answered.
func DecodeWorkItem(fields map[string]string) (WorkItem, error) {
	w := WorkItem{
		CorrelationID: fields[FieldCorrelationID],
		RequestID:     fields[FieldRequestID],
	}
	if ts := fields[FieldPublishedAt]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			w.PublishedAt = t
		}
	}

	data, ok := fields[FieldData]
	if !ok || data == "" {
		return w, errs.ValidationError("work item has no data field")
	}
	if !json.Valid([]byte(data)) {
		return w, errs.ValidationError("work item data is not valid json")
	}
	if w.CorrelationID == "" {
		return w, errs.ValidationError("work item has no correlation id")
	}
	w.Payload = json.RawMessage(data)
	return w, nil
}

// Result holds the domain-specific fields of a successful response.
type Result map[string]string

// JSONResult encodes v as the single result field name.
func JSONResult(name string, v any) (Result, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errs.E(errs.ErrValidation, "protocol.encode_result", err)
	}
	return Result{name: string(raw)}, nil
}

// Response is the outcome a worker publishes for exactly one work item.
// A failed response never carries result fields.
type Response struct {
	CorrelationID string
	Status        bool
	Result        Result
	ErrorCode     string
}

func Success(correlationID string, result Result) Response {
	return Response{CorrelationID: correlationID, Status: true, Result: result}
}

func Failure(correlationID string, err error) Response {
	code := errs.Code(err)
	if code == "" {
		code = "processing_error"
	}
	return Response{CorrelationID: correlationID, Status: false, ErrorCode: code}
}

func (r Response) Fields() map[string]string {
	f := map[string]string{
		FieldCorrelationID: r.CorrelationID,
		FieldStatus:        strconv.FormatBool(r.Status),
	}
	if !r.Status {
		f[FieldError] = r.ErrorCode
		return f
	}
	for k, v := range r.Result {
		switch k {
		case FieldCorrelationID, FieldStatus, FieldError:
			continue
		}
		f[k] = v
	}
	return f
}

func DecodeResponse(fields map[string]string) (Response, error) {
	raw, ok := fields[FieldStatus]
	if !ok {
		return Response{}, errs.ValidationError("response has no status field")
	}
	status, err := strconv.ParseBool(raw)
	if err != nil {
		return Response{}, errs.ValidationError("response status " + strconv.Quote(raw) + " is not a boolean")
	}

	r := Response{CorrelationID: fields[FieldCorrelationID], Status: status}
	if !status {
		r.ErrorCode = fields[FieldError]
		return r, nil
	}
	for k, v := range fields {
		switch k {
		case FieldCorrelationID, FieldStatus, FieldError:
			continue
		}
		if r.Result == nil {
			r.Result = Result{}
		}
		r.Result[k] = v
	}
	return r, nil
}

// DecodeResult unmarshals a JSON-encoded result field into v.
func (r Response) DecodeResult(name string, v any) error {
	raw, ok := r.Result[name]
	if !ok {
		return errs.ValidationError("response has no " + name + " field")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return errs.E(errs.ErrValidation, "protocol.decode_result", err)
	}
	return nil
}
