/*
Package randx generates identifiers: UUIDv4 user ids and Base62 object keys for uploaded
attachments, both from crypto/rand.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ObjectKeyLength is the length of the random part of an attachment key.
	ObjectKeyLength = 16

	// AttachmentPrefix is the top-level folder of every attachment key.
	AttachmentPrefix = "attachments"
)

// Base62 returns a random Base62 string of the given length.
func Base62(length int) (string, error) {
	result := make([]byte, length)

	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// UserID returns a fresh UUIDv4 string.
func UserID() string {
	return uuid.New().String()
}

// ObjectKey returns a key of the form attachments/2006-01-02/<random><ext> for an upload made at now.
// ext must include its leading dot, or be empty.
func ObjectKey(now time.Time, ext string) (string, error) {
	random, err := Base62(ObjectKeyLength)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s%s", AttachmentPrefix, now.UTC().Format("2006-01-02"), random, strings.ToLower(ext)), nil
}

// IsValidObjectKey reports whether key has the shape ObjectKey produces.
func IsValidObjectKey(key string) bool {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] != AttachmentPrefix {
		return false
	}

	if _, err := time.Parse("2006-01-02", parts[1]); err != nil {
		return false
	}

	name, _, _ := strings.Cut(parts[2], ".")
	if len(name) != ObjectKeyLength {
		return false
	}

	for _, char := range name {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
