package fetcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Payload is the decoded transparency feed. USDT values keep their raw JSON
// kind: json.Number, string, bool, []any, map[string]any or nil.
type Payload struct {
	Data PayloadData
}

// PayloadData holds the per-asset sections of the feed.
type PayloadData struct {
	USDT map[string]any
}

// ParsePayload strictly decodes a transparency body. Any shape mismatch is
// reported as a *MalformedPayloadError.
//
// Field names are matched exactly: encoding/json struct decoding folds case,
// which would accept "DATA" and merge a "USDT" section into "usdt".
func ParsePayload(body string) (*Payload, error) {
	dec := json.NewDecoder(strings.NewReader(body))

	var top map[string]json.RawMessage
	if err := dec.Decode(&top); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &MalformedPayloadError{Err: errors.New("trailing data after top-level value")}
	}

	rawData, ok := top["data"]
	if !ok {
		return nil, &MalformedPayloadError{Err: errors.New("missing field `data`")}
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(rawData, &data); err != nil {
		return nil, &MalformedPayloadError{Err: fmt.Errorf("field `data`: %w", err)}
	}
	if data == nil {
		return nil, &MalformedPayloadError{Err: errors.New("field `data` is null")}
	}

	rawUSDT, ok := data["usdt"]
	if !ok {
		return nil, &MalformedPayloadError{Err: errors.New("missing field `usdt`")}
	}
	usdt, err := decodeFields(rawUSDT)
	if err != nil {
		return nil, &MalformedPayloadError{Err: fmt.Errorf("field `usdt`: %w", err)}
	}
	if usdt == nil {
		return nil, &MalformedPayloadError{Err: errors.New("field `usdt` is null")}
	}

	return &Payload{Data: PayloadData{USDT: usdt}}, nil
}

func decodeFields(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}
