package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema creates a JSON Schema from the given Go type.
// It uses reflection to inspect the type structure and generates
// a schema suitable for use with AI structured output.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// UnmarshalFlexible attempts to unmarshal JSON into the target with multiple
// fallback strategies. It first tries standard JSON unmarshaling, then strips
// surrounding prose down to the outermost JSON bracket pair, and finally
// attempts to repair malformed JSON before parsing.
//
// Callers must treat a non-nil error as "no data extracted": the target is
// left untouched and the sub-step degrades instead of trusting a partially
// decoded structure.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	if sliced := sliceOutermostJSON(input); sliced != "" {
		if err := json.Unmarshal([]byte(sliced), out); err == nil {
			return nil
		}
		input = sliced
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}

	if err := json.Unmarshal([]byte(repaired), out); err == nil {
		return nil
	}

	return fmt.Errorf(
		"unmarshal failed after repair: input=%s repaired=%s",
		input, repaired,
	)
}

// sliceOutermostJSON returns the slice between the first opening bracket
// (object or array) and its matching last closing bracket, or "" when the
// input holds no such pair. Models often wrap JSON in commentary; the
// payload is whatever sits between the outermost brackets.
func sliceOutermostJSON(input string) string {
	objStart := strings.Index(input, "{")
	arrStart := strings.Index(input, "[")

	start := objStart
	closing := "}"
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		start = arrStart
		closing = "]"
	}
	if start < 0 {
		return ""
	}

	end := strings.LastIndex(input, closing)
	if end <= start {
		return ""
	}
	return input[start : end+1]
}
