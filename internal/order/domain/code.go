package domain

import (
	"crypto/rand"
	"strings"
)

// codeAlphabet has no 0/O or 1/I. Its 32 symbols divide 256 evenly, so a
// random byte modulo the length is unbiased.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

var codeLayouts = map[string][]int{
	"BSC": {4, 4},
	"MED": {5, 3},
	"MST": {4, 4, 2},
	"ALT": {4, 4},
}

// CodePrefix derives the category prefix from substrings of the package slug.
func CodePrefix(slug string) string {
	s := strings.ToLower(slug)
	switch {
	case strings.Contains(s, "basic"), strings.Contains(s, "basico"):
		return "BSC"
	case strings.Contains(s, "medium"), strings.Contains(s, "medio"):
		return "MED"
	case strings.Contains(s, "master"):
		return "MST"
	default:
		return "ALT"
	}
}

// GenerateCode returns a fresh code such as BSC-7KQ2-M9XD for slug.
func GenerateCode(slug string) string {
	prefix := CodePrefix(slug)
	var b strings.Builder
	b.WriteString(prefix)
	for _, n := range codeLayouts[prefix] {
		b.WriteByte('-')
		b.WriteString(randomBlock(n))
	}
	return b.String()
}

func randomBlock(n int) string {
	buf := make([]byte, n)
	// crypto/rand.Read does not return an error since Go 1.24.
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf)
}
