package analyze

import "encoding/json"

// The summarization collaborator answers in several shapes depending on its
// pipeline configuration: a bare JSON string, or an object carrying the text
// under "result", "message", or "data", or a {"$type":"string","result":...}
// envelope. shapeMatchers are tried in priority order; the first match wins.

type shapeMatcher func(raw json.RawMessage) (string, bool)

var shapeMatchers = []shapeMatcher{
	matchBareString,
	matchField("result"),
	matchField("message"),
	matchDataField,
	matchTypedEnvelope,
}

// ExtractText resolves a summarizer response body to plain text. When none
// of the known shapes match, the whole raw body is returned serialized so
// the caller always gets something renderable.
func ExtractText(raw json.RawMessage) string {
	for _, match := range shapeMatchers {
		if text, ok := match(raw); ok {
			return text
		}
	}
	return string(raw)
}

func matchBareString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// matchField matches {"<name>": "<text>"} with a string-valued field.
func matchField(name string) shapeMatcher {
	return func(raw json.RawMessage) (string, bool) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", false
		}
		val, ok := obj[name]
		if !ok {
			return "", false
		}
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return "", false
		}
		return s, true
	}
}

// matchDataField matches {"data": ...}; a string value is returned as-is,
// anything else is re-serialized.
func matchDataField(raw json.RawMessage) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	val, ok := obj["data"]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		return s, true
	}
	return string(val), true
}

// matchTypedEnvelope matches {"$type":"string","result":...} where result
// may itself be any JSON value.
func matchTypedEnvelope(raw json.RawMessage) (string, bool) {
	var env struct {
		Type   string          `json:"$type"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", false
	}
	if env.Type != "string" || env.Result == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(env.Result, &s); err == nil {
		return s, true
	}
	return string(env.Result), true
}
