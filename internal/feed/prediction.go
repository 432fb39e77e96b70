package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dj-oyu/vision-dash/pkg/types"
)

var predictionFields = []string{"set_num", "num_obj", "num_difference", "colour", "img"}

// DecodePrediction parses one event payload.
//
// All five fields must be present. In lenient mode numeric fields follow
// the dashboard's historical coercion: numbers are truncated, numeric
// strings are parsed and any other value counts as 0. Strict mode accepts
// JSON integers only.
func DecodePrediction(data []byte, strict bool) (types.Prediction, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.Prediction{}, &ParseError{Err: err}
	}
	if raw == nil {
		return types.Prediction{}, &ParseError{Err: fmt.Errorf("payload is null")}
	}
	for _, field := range predictionFields {
		if _, ok := raw[field]; !ok {
			return types.Prediction{}, &ParseError{Err: fmt.Errorf("missing field %q", field)}
		}
	}

	var p types.Prediction
	var err error
	if p.SetNum, err = decodeCount(raw["set_num"], strict); err != nil {
		return types.Prediction{}, &ParseError{Err: fmt.Errorf("set_num: %w", err)}
	}
	if p.NumObj, err = decodeCount(raw["num_obj"], strict); err != nil {
		return types.Prediction{}, &ParseError{Err: fmt.Errorf("num_obj: %w", err)}
	}
	if p.NumDifference, err = decodeCount(raw["num_difference"], strict); err != nil {
		return types.Prediction{}, &ParseError{Err: fmt.Errorf("num_difference: %w", err)}
	}
	if p.Colour, err = decodeText(raw["colour"]); err != nil {
		return types.Prediction{}, &ParseError{Err: fmt.Errorf("colour: %w", err)}
	}
	if p.Img, err = decodeText(raw["img"]); err != nil {
		return types.Prediction{}, &ParseError{Err: fmt.Errorf("img: %w", err)}
	}
	return p, nil
}

func decodeCount(raw json.RawMessage, strict bool) (int, error) {
	raw = bytes.TrimSpace(raw)

	if strict {
		// json.Number would also accept a quoted number.
		if len(raw) == 0 || raw[0] == '"' {
			return 0, fmt.Errorf("not an integer: %s", raw)
		}
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return 0, fmt.Errorf("not an integer: %s", raw)
		}
		v, err := num.Int64()
		if err != nil {
			return 0, fmt.Errorf("not an integer: %s", raw)
		}
		return int(v), nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return truncate(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, nil
		}
		return truncate(f), nil
	default:
		return 0, nil
	}
}

// truncate drops the fraction. Values an int64 cannot hold, NaN and Inf
// included, become 0.
func truncate(f float64) int {
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int(f)
}

func decodeText(raw json.RawMessage) (string, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("not a string: %s", bytes.TrimSpace(raw))
	}
	if s == nil {
		return "", nil
	}
	return *s, nil
}
