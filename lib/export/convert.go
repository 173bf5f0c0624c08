package export

import (
	"fmt"

	"golang.org/x/text/encoding/htmlindex"
)

// IsUTF8 reports whether the charset label names UTF-8. An empty label
// counts as UTF-8.
func IsUTF8(label string) bool {
	if label == "" {
		return true
	}
	name, err := htmlindex.Get(label)
	if err != nil {
		return false
	}
	canonical, err := htmlindex.Name(name)
	return err == nil && canonical == "utf-8"
}

// Convert re-encodes UTF-8 content into the charset named by label, using
// the WHATWG label set (e.g. "windows-1252", "latin1", "shift_jis").
func Convert(content, label string) (string, error) {
	if IsUTF8(label) {
		return content, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrEncoding, label)
	}
	out, err := enc.NewEncoder().String(content)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrEncoding, label, err)
	}
	return out, nil
}

// BOM is the UTF-8 byte order mark.
const BOM = "\xEF\xBB\xBF"
