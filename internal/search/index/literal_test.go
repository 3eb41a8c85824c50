package index

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestLiteralToJSON(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{`{a:1,"b":[2,3]}`, map[string]any{"a": 1.0, "b": []any{2.0, 3.0}}},
		{`{sphinx:56,"sphinx.domains.c":2}`, map[string]any{"sphinx": 56.0, "sphinx.domains.c": 2.0}},
		{`{'single':'it\'s'}`, map[string]any{"single": "it's"}},
		{`{s:'say "hi"'}`, map[string]any{"s": `say "hi"`}},
		{`{u:"α",x:'\x41'}`, map[string]any{"u": "α", "x": "A"}},
		{`{t:true,f:false,n:null}`, map[string]any{"t": true, "f": false, "n": nil}},
		{`{neg:-1,exp:1e3}`, map[string]any{"neg": -1.0, "exp": 1000.0}},
		{`{_id:1,$ref:2,a_b2:3}`, map[string]any{"_id": 1.0, "$ref": 2.0, "a_b2": 3.0}},
	}
	for _, tc := range cases {
		b, err := literalToJSON([]byte(tc.in))
		if err != nil {
			t.Fatalf("literalToJSON(%s): %v", tc.in, err)
		}
		var got any
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("literalToJSON(%s) produced invalid JSON %s: %v", tc.in, b, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("literalToJSON(%s): got %#v want %#v", tc.in, got, tc.want)
		}
	}
}

func TestLiteralToJSON_UnterminatedString(t *testing.T) {
	if _, err := literalToJSON([]byte(`{a:"oops}`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUnwrapSetIndex(t *testing.T) {
	cases := map[string]string{
		`Search.setIndex({a:1})`:         `{a:1}`,
		"Search.setIndex({a:1});\n":      `{a:1}`,
		"\ufeff  Search.setIndex( {} ) ": `{}`,
		`{"a":1}`:                        `{"a":1}`,
	}
	for in, want := range cases {
		got, err := unwrapSetIndex([]byte(in))
		if err != nil {
			t.Fatalf("unwrapSetIndex(%q): %v", in, err)
		}
		if string(got) != want {
			t.Fatalf("unwrapSetIndex(%q): got %q want %q", in, got, want)
		}
	}
}
