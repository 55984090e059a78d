package srs

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MinScore is the lowest score a negative grader result is passed through as.
const MinScore = math.MinInt32

// Normalize converts a raw grading result into a score on the 0-100 scale.
//
// Values in (0, 10] are read as a ten-point grade and multiplied by 10; 0
// always means 0 out of 100. Values above 100 are clamped to 100. Negative
// values are passed through so a malfunctioning grader stays visible to the
// caller: they round toward negative infinity, so -0.3 yields -1, and are
// floored at MinScore. Unparseable input yields 0.
func Normalize(raw any) int {
	score, _ := NormalizeRaw(raw)
	return score
}

// NormalizeRaw is Normalize that also reports whether raw could be parsed
// as a number.
func NormalizeRaw(raw any) (int, bool) {
	v, ok := parseScore(raw)
	if !ok {
		return 0, false
	}
	return normalizeValue(v), true
}

// Normalization describes how a raw score was interpreted.
type Normalization struct {
	Score    int
	Parsed   bool
	Negative bool // the grader produced a score below zero
	Clamped  bool // the value exceeded 100 and was cut down
	Floored  bool // the value was below MinScore and was raised to it
}

// Inspect normalizes raw and reports the anomalies a caller should log.
func Inspect(raw any) Normalization {
	v, ok := parseScore(raw)
	if !ok {
		return Normalization{}
	}
	return Normalization{
		Score:    normalizeValue(v),
		Parsed:   true,
		Negative: v < 0,
		Clamped:  v > 100,
		Floored:  v < MinScore,
	}
}

func normalizeValue(v float64) int {
	if v < 0 {
		return int(math.Max(math.Floor(v), MinScore))
	}
	if v > 0 && v <= 10 {
		v *= 10
	}
	if v > 100 {
		v = 100
	}
	return int(math.Round(v))
}

func parseScore(raw any) (float64, bool) {
	var v float64
	switch x := raw.(type) {
	case int:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case float32:
		v = float64(x)
	case float64:
		v = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// RawString renders a raw score for the history log exactly as received.
func RawString(raw any) string {
	switch x := raw.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
