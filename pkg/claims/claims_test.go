package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanseDropsSensitiveAndNestedValues(t *testing.T) {
	in := map[string]any{
		"id":        "user@example.com",
		"name":      "User",
		"age":       42,
		"active":    true,
		"idToken":   "raw-provider-token",
		"authToken": "raw-access-token",
		"PASSWORD":  "hunter2",
		"profile":   map[string]any{"nested": true},
		"scopes":    []any{"email"},
	}

	out := Cleanse(in)

	assert.Equal(t, "user@example.com", out["id"])
	assert.Equal(t, "User", out["name"])
	assert.Equal(t, 42, out["age"])
	assert.Equal(t, true, out["active"])
	assert.NotContains(t, out, "idToken")
	assert.NotContains(t, out, "authToken")
	assert.NotContains(t, out, "PASSWORD")
	assert.NotContains(t, out, "profile")
	assert.NotContains(t, out, "scopes")
}

func TestCleanseDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"id": "a", "token": "b"}
	_ = Cleanse(in)

	assert.Equal(t, "b", in["token"])
}

func TestRedactedJSONMasksSensitiveFields(t *testing.T) {
	out := RedactedJSON(map[string]any{
		"email":    "user@example.com",
		"idToken":  "raw-provider-token",
		"accounts": []any{map[string]any{"secret": "s3cr3t"}},
	})

	assert.Contains(t, out, "user@example.com")
	assert.NotContains(t, out, "raw-provider-token")
	assert.NotContains(t, out, "s3cr3t")
	assert.Contains(t, out, "**REDACTED**")
}

func TestRedactedJSONMasksListValues(t *testing.T) {
	out := RedactedJSON(map[string]any{"key": []any{"k1", "k2"}})

	assert.NotContains(t, out, "k1")
	assert.Contains(t, out, "**REDACTED**")
}

func TestRedactedJSONUnserializable(t *testing.T) {
	assert.Equal(t, "{}", RedactedJSON(make(chan int)))
}
