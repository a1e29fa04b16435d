package emailblocks

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	// NanoIDAlphabet is the character set used for block ids
	NanoIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	blockIDPrefix = "blk_"
	blockIDLength = 10
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashRuns     = regexp.MustCompile(`-+`)
)

// NewBlockID returns a fresh opaque block id such as "blk_3k9x0a7bqz"
func NewBlockID() string {
	return blockIDPrefix + GenerateNanoID(blockIDLength)
}

// GenerateNanoID generates a cryptographically random lowercase alphanumeric id
func GenerateNanoID(length int) string {
	if length <= 0 {
		length = blockIDLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(NanoIDAlphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			result[i] = NanoIDAlphabet[i%len(NanoIDAlphabet)]
			continue
		}
		result[i] = NanoIDAlphabet[num.Int64()]
	}

	return string(result)
}

// FileSlug turns a template name into a file-system friendly base name.
// "Spring Sale: 2024!" becomes "spring-sale-2024".
func FileSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return "email-template"
	}
	return slug
}
