package ai

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema derives a strict JSON schema for v's type. Additional
// properties are disallowed and definitions are inlined so the schema can
// be handed to structured-output APIs directly.
func GenerateSchema(v any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}

// UnmarshalFlexible parses model output into out, tolerating the common
// failure shapes of LLM JSON: double-encoded strings, a duplicated leading
// brace, and structurally broken JSON that jsonrepair can recover.
func UnmarshalFlexible(data string, out any) error {
	if err := json.Unmarshal([]byte(data), out); err == nil {
		return nil
	}

	// Some models return the JSON object stringified inside a JSON string.
	var inner string
	if err := json.Unmarshal([]byte(data), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), out); err == nil {
			return nil
		}
	}

	// A duplicated opening brace ("{{\"key\": ...") shows up often enough
	// to special-case before falling through to full repair.
	trimmed := strings.TrimSpace(data)
	if strings.HasPrefix(trimmed, "{{") {
		candidate := strings.TrimPrefix(trimmed, "{")
		if err := json.Unmarshal([]byte(candidate), out); err == nil {
			return nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(data)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(repaired), out)
}
