package encoding

import (
	"errors"
	"testing"
)

type testState struct {
	Page    int               `msgpack:"p"`
	Sort    string            `msgpack:"s"`
	All     bool              `msgpack:"a"`
	Filters map[string]string `msgpack:"f"`
}

func TestNewEncoder(t *testing.T) {
	if _, err := NewEncoder([]byte("short")); err != nil {
		t.Fatalf("NewEncoder with short key failed: %v", err)
	}
	if _, err := NewEncoder([]byte("this-is-a-longer-than-32-byte-key-for-aes")); err != nil {
		t.Fatalf("NewEncoder with long key failed: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	original := testState{Page: 3, Sort: "-amount", All: true, Filters: map[string]string{"name": "ann"}}

	for _, sensitive := range []bool{false, true} {
		token, err := enc.Encode(original, sensitive)
		if err != nil {
			t.Fatalf("Encode(sensitive=%v) failed: %v", sensitive, err)
		}

		var decoded testState
		if err := enc.Decode(token, sensitive, &decoded); err != nil {
			t.Fatalf("Decode(sensitive=%v) failed: %v", sensitive, err)
		}
		if decoded.Page != 3 || decoded.Sort != "-amount" || !decoded.All || decoded.Filters["name"] != "ann" {
			t.Errorf("sensitive=%v: got %+v", sensitive, decoded)
		}
	}
}

func TestSignatureVerificationFailure(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	token, err := enc.Encode(testState{Page: 1}, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded testState
	err = enc.Decode("AAAA"+token[4:], false, &decoded)
	if !errors.Is(err, ErrSignatureInvalid) && !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected signature error, got: %v", err)
	}
}

func TestDecryptionFailure(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	token, err := enc.Encode(testState{Page: 1}, true)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded testState
	if err := enc.Decode(token[:len(token)-2]+"XX", true, &decoded); err == nil {
		t.Error("expected error for tampered ciphertext, got nil")
	}
}

func TestInvalidFormat(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	var decoded testState
	if err := enc.Decode("no-separator", false, &decoded); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got: %v", err)
	}
	if err := enc.Decode("!!", true, &decoded); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got: %v", err)
	}
}

func TestDifferentKeysCannotDecode(t *testing.T) {
	enc1, _ := NewEncoder([]byte("key-one"))
	enc2, _ := NewEncoder([]byte("key-two"))

	token, err := enc1.Encode(testState{Page: 2}, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded testState
	if err := enc2.Decode(token, false, &decoded); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("expected ErrSignatureInvalid, got: %v", err)
	}
}
