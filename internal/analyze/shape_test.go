package analyze

import (
	"encoding/json"
	"testing"
)

func TestExtractText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare string", `"plain summary"`, "plain summary"},
		{"result field", `{"result":"from result"}`, "from result"},
		{"message field", `{"message":"from message"}`, "from message"},
		{"data string", `{"data":"from data"}`, "from data"},
		{"data object", `{"data":{"k":1}}`, `{"k":1}`},
		{"typed envelope", `{"$type":"string","result":"wrapped"}`, "wrapped"},
		{"result wins over message", `{"message":"b","result":"a"}`, "a"},
		{"unrecognized falls back raw", `{"odd":true}`, `{"odd":true}`},
		{"invalid json falls back raw", `not json at all`, `not json at all`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractText(json.RawMessage(tc.raw)); got != tc.want {
				t.Errorf("ExtractText(%s) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
