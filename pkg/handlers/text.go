package handlers

import (
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the longest message the client packs.
const MaxTextLength = 80

// textChars is the client's packed text alphabet. The first 13 entries
// pack into one nibble, the rest into two.
var textChars = []rune{
	' ', 'e', 't', 'a', 'o', 'i', 'h', 'n', 's', 'r', 'd', 'l', 'u',
	'm', 'w', 'c', 'y', 'f', 'g', 'p', 'b', 'v', 'k', 'x', 'j', 'q', 'z',
	'0', '1', '2', '3', '4', '5', '6', '7', '8', '9',
	' ', '!', '?', '.', ',', ':', ';', '(', ')', '-', '&', '*', '\\', '\'',
	'@', '#', '+', '=', '£', '$', '%', '"', '[', ']',
}

var textIndex = func() map[rune]int {
	m := make(map[rune]int, len(textChars))
	for i := len(textChars) - 1; i >= 0; i-- {
		m[textChars[i]] = i
	}
	return m
}()

// UnpackText decodes packed chat text and capitalizes the first letter of
// each sentence.
func UnpackText(packed []byte) string {
	var sb strings.Builder
	sb.Grow(len(packed) * 2)

	carry := -1
	nibble := func(n int) {
		if carry == -1 {
			if n < 13 {
				sb.WriteRune(textChars[n])
			} else {
				carry = n
			}
			return
		}
		sb.WriteRune(textChars[carry<<4+n-195])
		carry = -1
	}
	for _, b := range packed {
		nibble(int(b >> 4))
		nibble(int(b & 0xF))
	}
	return capitalizeSentences(sb.String())
}

func capitalizeSentences(s string) string {
	out := []rune(s)
	start := true
	for i, r := range out {
		if start && r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
			start = false
		}
		if r == '.' || r == '!' || r == '?' {
			start = true
		}
	}
	return string(out)
}

// PackText encodes text the way the client does. Text is lowercased and
// cut to MaxTextLength characters; characters outside the alphabet become
// spaces.
func PackText(text string) []byte {
	text = strings.ToLower(text)
	if utf8.RuneCountInString(text) > MaxTextLength {
		text = string([]rune(text)[:MaxTextLength])
	}

	out := make([]byte, 0, len(text))
	carry := -1
	for _, r := range text {
		k := textIndex[r]
		if k > 12 {
			k += 195
		}
		switch {
		case carry == -1 && k < 13:
			carry = k
		case carry == -1:
			out = append(out, byte(k))
		case k < 13:
			out = append(out, byte(carry<<4+k))
			carry = -1
		default:
			out = append(out, byte(carry<<4+k>>4))
			carry = k & 0xF
		}
	}
	if carry != -1 {
		out = append(out, byte(carry<<4))
	}
	return out
}
