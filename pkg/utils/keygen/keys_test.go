package keygen

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey(32)
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if !strings.HasPrefix(key, "tsk_") || len(key) != len("tsk_")+32 {
		t.Errorf("unexpected key shape %q", key)
	}
	for _, r := range strings.TrimPrefix(key, "tsk_") {
		if !strings.ContainsRune(apiKeyCharset, r) {
			t.Fatalf("key contains %q outside the charset", r)
		}
	}

	other, _ := GenerateAPIKey(32)
	if other == key {
		t.Error("two keys should differ")
	}
}

func TestGenerateAPIKey_TooShort(t *testing.T) {
	if _, err := GenerateAPIKey(MinAPIKeyLength - 1); err == nil {
		t.Error("expected an error for a short key")
	}
}
