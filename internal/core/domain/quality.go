package domain

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ScoreTextQuality estimates how usable extracted text is for AI
// analysis, on a [0,1] scale rounded to two decimals. The score gates
// the vision fallback decision. Four weighted signals:
//
//   - readable character ratio (letters, digits, whitespace and basic
//     punctuation), up to 0.4
//   - special character penalty, up to 0.2
//   - average word length inside a plausible band, up to 0.2
//   - repeated character run penalty, up to 0.2
//
// Anything under 50 trimmed characters scores 0.
func ScoreTextQuality(text string) float64 {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < 50 {
		return 0
	}

	runes := []rune(text)
	total := float64(len(runes))

	readable := 0
	for _, r := range runes {
		if isReadable(r) {
			readable++
		}
	}

	score := math.Min(float64(readable)/total, 1.0) * 0.4

	specialRatio := (total - float64(readable)) / total
	score += math.Max(0, 1-specialRatio*5) * 0.2

	if words := strings.Fields(text); len(words) > 0 {
		avgWordLength := total / float64(len(words))
		switch {
		case avgWordLength >= 3 && avgWordLength <= 8:
			score += 0.2
		case avgWordLength >= 2 && avgWordLength <= 10:
			score += 0.1
		}
	}

	repeatedRatio := float64(repeatedRunCount(runes)) / total
	score += math.Max(0, 1-repeatedRatio*20) * 0.2

	return math.Min(math.Round(score*100)/100, 1.0)
}

func isReadable(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) ||
		strings.ContainsRune(".,!?;:-", r)
}

// repeatedRunCount counts maximal runs of four or more identical
// consecutive runes. Newline runs are ignored so blank-line padding is
// not mistaken for OCR garbage.
func repeatedRunCount(runes []rune) int {
	count := 0
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if runes[i] != '\n' && j-i >= 4 {
			count++
		}
		i = j
	}
	return count
}
