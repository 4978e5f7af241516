package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/runnerr0/dnslens/internal/errors"
	"github.com/runnerr0/dnslens/internal/storage"
)

// strippedFields are caller-supplied keys that the store owns or that carry
// no event data.
var strippedFields = []string{"_id", "id", "message", "__v", "createdAt", "updatedAt"}

// timestampLayouts are tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseBatch decodes a JSON array of loosely-typed record candidates into
// events. Any malformed element rejects the whole batch with a
// KindValidation error.
func ParseBatch(data []byte) ([]storage.EventRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, errors.KindValidation, "decode batch")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New(errors.KindValidation, "unexpected data after batch")
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, errors.New(errors.KindValidation, "Expected an array of log objects.")
	}

	events := make([]storage.EventRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.AtRecord(errors.Errorf(errors.KindValidation, "record %d: expected an object", i), i)
		}
		e, err := parseCandidate(obj)
		if err != nil {
			return nil, errors.AtRecord(errors.Wrapf(err, errors.KindValidation, "record %d", i), i)
		}
		events = append(events, e)
	}

	return events, nil
}

// parseCandidate validates a single record candidate.
func parseCandidate(obj map[string]interface{}) (storage.EventRecord, error) {
	for _, k := range strippedFields {
		delete(obj, k)
	}

	var e storage.EventRecord
	var err error

	if e.Timestamp, err = timestampField(obj, "timestamp"); err != nil {
		return e, err
	}

	prediction, err := stringField(obj, "prediction")
	if err != nil {
		return e, err
	}
	v, ok := storage.ParseVerdict(prediction)
	if !ok {
		return e, errors.Errorf(errors.KindValidation, "prediction %q is not one of benign, malware, spam, phishing", prediction)
	}
	e.Prediction = v

	if e.Domain, err = stringField(obj, "domain"); err != nil {
		return e, err
	}
	e.Domain = strings.TrimSpace(e.Domain)
	if e.Domain == "" {
		return e, errors.New(errors.KindValidation, "domain must not be empty")
	}

	eventType, err := stringField(obj, "event_type")
	if err != nil {
		return e, err
	}
	d, ok := storage.ParseDirection(eventType)
	if !ok {
		return e, errors.Errorf(errors.KindValidation, "event_type %q is not one of Query, Response", eventType)
	}
	e.EventType = d

	numbers := []struct {
		key string
		dst *float64
	}{
		{"dns_domain_name_length", &e.DomainNameLength},
		{"numerical_percentage", &e.NumericalPercentage},
		{"character_entropy", &e.CharacterEntropy},
		{"max_numeric_length", &e.MaxNumericLength},
		{"max_alphabet_length", &e.MaxAlphabetLength},
		{"vowels_consonant_ratio", &e.VowelsConsonantRatio},
		{"receiving_bytes", &e.ReceivingBytes},
		{"sending_bytes", &e.SendingBytes},
		{"ttl_mean", &e.TTLMean},
	}
	for _, n := range numbers {
		if *n.dst, err = numberField(obj, n.key); err != nil {
			return e, err
		}
	}

	return e, nil
}

func stringField(obj map[string]interface{}, key string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", errors.Errorf(errors.KindValidation, "missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf(errors.KindValidation, "field %q must be a string", key)
	}
	return s, nil
}

func numberField(obj map[string]interface{}, key string) (float64, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, errors.Errorf(errors.KindValidation, "missing required field %q", key)
	}

	var f float64
	var err error
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, errors.Errorf(errors.KindValidation, "field %q must be a number", key)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf(errors.KindValidation, "field %q must be a finite number", key)
	}
	return f, nil
}

// timestampField accepts an ISO-8601 string or epoch milliseconds.
func timestampField(obj map[string]interface{}, key string) (time.Time, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return time.Time{}, errors.Errorf(errors.KindValidation, "missing required field %q", key)
	}

	switch t := v.(type) {
	case json.Number:
		ms, err := t.Float64()
		if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return time.Time{}, errors.Errorf(errors.KindValidation, "field %q is not a valid epoch", key)
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, errors.Errorf(errors.KindValidation, "cannot parse %q %q", key, s)
	default:
		return time.Time{}, errors.Errorf(errors.KindValidation, "field %q must be a string or number", key)
	}
}

// InsertBatch stores already-validated events all-or-nothing.
func (e *Engine) InsertBatch(ctx context.Context, events []storage.EventRecord) error {
	if err := e.store.InsertBatch(ctx, events); err != nil {
		e.logger.Error("insert batch failed", "size", len(events), "error", err)
		return errors.Wrap(err, errors.KindUnavailable, "insert batch")
	}
	e.logger.Info("inserted batch", "size", len(events))
	return nil
}

// Ingest parses data and inserts the resulting batch. It returns the number
// of inserted events.
func (e *Engine) Ingest(ctx context.Context, data []byte) (int, error) {
	events, err := ParseBatch(data)
	if err != nil {
		e.logger.Warn("rejected batch", "error", err)
		return 0, err
	}
	if err := e.InsertBatch(ctx, events); err != nil {
		return 0, err
	}
	return len(events), nil
}
