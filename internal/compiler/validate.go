package compiler

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/go-viper/mapstructure/v2"

	"identity-compiler/internal/common/validation"
)

// Validate checks a parsed document against ResponseSchema and decodes it into
// a CompilerResponse. Every violation is reported in one *SchemaError.
func Validate(doc interface{}) (*CompilerResponse, error) {
	result := validation.ValidateDocument(doc, ResponseSchema)
	if !result.Valid {
		return nil, &SchemaError{Violations: result.Errors}
	}

	var resp CompilerResponse
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     &resp,
		DecodeHook: jsonNumberHook,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode compiler response: %w", err)
	}

	resp.Profile = plainNumbers(resp.Profile).(map[string]interface{})
	return &resp, nil
}

// jsonNumberHook lets whole-valued literals such as "3.0" or "1e2" land in
// int fields. The schema has already rejected fractional values.
func jsonNumberHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%s is not an integer", n)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("%s is out of integer range", n)
		}
		return int64(f), nil
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	}
	return data, nil
}

// plainNumbers replaces json.Number inside the open profile with int64 or
// float64 so the profile marshals as numbers in every encoding.
func plainNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = plainNumbers(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = plainNumbers(item)
		}
		return out
	case json.Number:
		if i, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	}
	return v
}
