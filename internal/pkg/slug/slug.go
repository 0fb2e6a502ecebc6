package slug

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode"
)

// Alphabet for random suffixes (36 characters: 0-9, a-z)
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const maxBaseLength = 60

// Normalize turns a display name into a URL-safe slug base. Non-ASCII
// letters are dropped, runs of separators collapse to a single hyphen.
func Normalize(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r), r == '-', r == '_', r == '.', r == '/':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= maxBaseLength {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

// GenerateSecureSuffix creates a cryptographically secure random suffix.
func GenerateSecureSuffix(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid suffix length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 252 is the largest multiple of 36 below 256.
	const maxRandomByte = 252

	suffix := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			suffix[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(suffix), nil
}

// ForName builds a provider slug from a display name with a random
// suffix so that two providers with the same name never collide.
func ForName(name string) (string, error) {
	suffix, err := GenerateSecureSuffix(6)
	if err != nil {
		return "", err
	}
	base := Normalize(name)
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}
