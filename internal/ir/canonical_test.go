package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"min int64", IRInt(-9223372036854775808), "-9223372036854775808"},
		{"bool", IRBool(true), "true"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"nested", IRObject{"a": IRArray{IRInt(1), IRBool(false)}}, `{"a":[1,false]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra": IRInt(1),
		"alpha": IRObject{"b": IRInt(1), "a": IRInt(2)},
		"beta":  IRInt(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort BEFORE U+FB01 in
	// UTF-16 even though its UTF-8 encoding sorts after.
	obj := IRObject{
		"\ufb01":     IRInt(1),
		"\U0001F600": IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\ufb01\":1}", string(result))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html not escaped", "<a&b>", `"<a&b>"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"control chars", "\n\t\x01", `"\n\t\u0001"`},
		{"line separator literal", "\u2028", "\"\u2028\""},
		{"nfc normalized", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(IRObject{"a": IRNull{}})
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestIRObject_UnmarshalJSON(t *testing.T) {
	var obj IRObject
	require.NoError(t, json.Unmarshal([]byte(`{"n":7,"s":"x","b":true,"a":[1,"y"],"z":null}`), &obj))

	assert.Equal(t, IRInt(7), obj["n"])
	assert.Equal(t, IRString("x"), obj["s"])
	assert.Equal(t, IRBool(true), obj["b"])
	assert.Equal(t, IRArray{IRInt(1), IRString("y")}, obj["a"])
	assert.Equal(t, IRNull{}, obj["z"])

	assert.Error(t, json.Unmarshal([]byte(`{"f":1.5}`), &obj))
}

func TestToIRValue(t *testing.T) {
	v, err := ToIRValue(map[string]any{"k": []any{1, "two", true}})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"k": IRArray{IRInt(1), IRString("two"), IRBool(true)}}, v)

	_, err = ToIRValue(1.5)
	assert.Error(t, err)

	_, err = ToIRValue(uint64(1) << 63)
	assert.Error(t, err)
}
