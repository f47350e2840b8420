// Package phrases builds the calculator phrases for a date
package phrases

import (
	"fmt"
	"strings"
	"time"
)

// zodiacToPlanet maps a moon sign to its ruling planets
var zodiacToPlanet = map[string][]string{
	"aries":       {"mars"},
	"taurus":      {"venus"},
	"gemini":      {"mercury"},
	"cancer":      {"moon"},
	"leo":         {"sun"},
	"virgo":       {"mercury"},
	"libra":       {"venus"},
	"scorpio":     {"mars"},
	"sagittarius": {"jupiter"},
	"capricorn":   {"saturn"},
	"aquarius":    {"saturn", "uranus"},
	"pisces":      {"neptune"},
}

var ordinalWords = [...]string{
	"", "first", "second", "third", "fourth", "fifth", "sixth", "seventh",
	"eighth", "ninth", "tenth", "eleventh", "twelfth", "thirteenth",
	"fourteenth", "fifteenth", "sixteenth", "seventeenth", "eighteenth",
	"nineteenth", "twentieth", "twenty-first", "twenty-second", "twenty-third",
	"twenty-fourth", "twenty-fifth", "twenty-sixth", "twenty-seventh",
	"twenty-eighth", "twenty-ninth", "thirtieth", "thirty-first",
}

// IsSign reports whether s is a known zodiac sign (lowercase)
func IsSign(s string) bool {
	_, ok := zodiacToPlanet[s]
	return ok
}

// Planets returns the ruling planets of a sign, nil if unknown
func Planets(sign string) []string {
	return zodiacToPlanet[strings.ToLower(sign)]
}

// OrdinalSuffix appends st/nd/rd/th to a decimal string ("2" -> "2nd", "12" -> "12th")
func OrdinalSuffix(s string) string {
	if s == "" {
		return s
	}
	if len(s) >= 2 {
		switch s[len(s)-2:] {
		case "11", "12", "13":
			return s + "th"
		}
	}
	switch s[len(s)-1] {
	case '1':
		return s + "st"
	case '2':
		return s + "nd"
	case '3':
		return s + "rd"
	}
	return s + "th"
}

// OrdinalWords spells a day of month as an ordinal ("twenty-fifth").
// Days outside 1..31 return "".
func OrdinalWords(day int) string {
	if day < 1 || day >= len(ordinalWords) {
		return ""
	}
	return ordinalWords[day]
}

// ForDate returns the phrases submitted to the calculator for a date.
// Sign phrases are skipped when moonSign is empty or unknown.
func ForDate(date time.Time, moonSign string) []string {
	day := date.Format("02")
	month := date.Format("January")
	year := date.Format("2006")
	ordinal := OrdinalSuffix(day)

	out := []string{
		fmt.Sprintf("%s %s %s", day, month, year),
		fmt.Sprintf("%s %s", day, month),
		fmt.Sprintf("%s %s", OrdinalWords(date.Day()), month),
		fmt.Sprintf("%s %s %s", ordinal, month, year),
		fmt.Sprintf("%s %s", ordinal, month),
	}

	sign := strings.ToLower(moonSign)
	if planets, ok := zodiacToPlanet[sign]; ok {
		out = append(out, planets...)
		out = append(out, sign, "moon in "+sign)
	}

	return append(out, date.Format("Monday"))
}

// FirstSign returns the first candidate that names a zodiac sign, lowercased.
// Moon calendar pages list several symbols; only the sign matters.
func FirstSign(candidates []string) string {
	for _, c := range candidates {
		if s := strings.ToLower(strings.TrimSpace(c)); IsSign(s) {
			return s
		}
	}
	return ""
}
