package engine

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// CleanText decodes HTML entities, collapses whitespace and strips control
// characters. Upstream titles and descriptions arrive with all three problems.
func CleanText(input string) string {
	decoded := html.UnescapeString(input)
	collapsed := strings.Join(strings.Fields(decoded), " ")
	var b strings.Builder
	b.Grow(len(collapsed))
	for _, r := range strings.TrimSpace(collapsed) {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DecodeLabel cleans a display label that may arrive URL-encoded on top of
// the usual entity and whitespace noise.
func DecodeLabel(value string) string {
	decoded := value
	// PathUnescape decodes %XX without treating '+' as a space.
	if unescaped, err := url.PathUnescape(value); err == nil {
		decoded = unescaped
	}
	return CleanText(decoded)
}

// ParseHumanNumber converts display counts like "1.2K", "3M", "1 234 567" or
// "12,345" into a plain digit string. Empty input yields "0".
func ParseHumanNumber(s string) string {
	if s == "" {
		return "0"
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == ' ' {
			return -1
		}
		return unicode.ToUpper(r)
	}, strings.TrimSpace(s))

	if len(cleaned) > 1 {
		last := cleaned[len(cleaned)-1]
		var mult float64
		switch last {
		case 'K':
			mult = 1e3
		case 'M':
			mult = 1e6
		case 'B':
			mult = 1e9
		}
		if mult != 0 {
			if num, err := strconv.ParseFloat(cleaned[:len(cleaned)-1], 64); err == nil {
				return strconv.FormatInt(int64(num*mult+0.5), 10)
			}
		}
	}

	var digits strings.Builder
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

var subscriberRE = regexp.MustCompile(`([\d,]+\.?\d*)\s*(млн|тыс|[KM]?)`)

// ParseSubscriberCount normalizes subscriber count strings, including the
// Russian-locale "млн"/"тыс" multipliers YouTube serves for ru accounts.
func ParseSubscriberCount(s string) string {
	cleaned := s
	for _, suffix := range []string{" подписчиков", " подписчик", " subscribers", " subscriber"} {
		cleaned = strings.ReplaceAll(cleaned, suffix, "")
	}
	if m := subscriberRE.FindStringSubmatch(cleaned); m != nil {
		numberPart := strings.NewReplacer(",", "", ".", "").Replace(m[1])
		if number, err := strconv.ParseFloat(numberPart, 64); err == nil {
			switch m[2] {
			case "млн", "M":
				number *= 1e6
			case "тыс", "K":
				number *= 1e3
			}
			return strconv.FormatUint(uint64(number), 10)
		}
	}
	var digits strings.Builder
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() > 0 {
		return digits.String()
	}
	return cleaned
}

var russianTimePhrases = []struct{ ru, en string }{
	{"несколько секунд назад", "a few seconds ago"},
	{"секунду назад", "a second ago"},
	{" секунд назад", " seconds ago"},
	{" секунды назад", " seconds ago"},
	{" минуту назад", " a minute ago"},
	{" минут назад", " minutes ago"},
	{" часа назад", " hours ago"},
	{" часов назад", " hours ago"},
	{" день назад", " a day ago"},
	{" дней назад", " days ago"},
	{" недели назад", " weeks ago"},
	{" недель назад", " weeks ago"},
	{" месяц назад", " a month ago"},
	{" месяцев назад", " months ago"},
	{" года назад", " years ago"},
	{" лет назад", " years ago"},
	{"только что", "just now"},
	{"сегодня", "today"},
	{"вчера", "yesterday"},
	{"позавчера", "day before yesterday"},
}

// TranslateRussianTime rewrites Russian relative-time phrases into English.
// The legacy clients only understand English published-time strings.
func TranslateRussianTime(timeStr string) string {
	lower := strings.ToLower(timeStr)
	result := timeStr
	for _, tr := range russianTimePhrases {
		if strings.Contains(lower, tr.ru) {
			result = strings.ReplaceAll(result, tr.ru, tr.en)
			r := []rune(tr.ru)
			capitalized := string(unicode.ToUpper(r[0])) + string(r[1:])
			result = strings.ReplaceAll(result, capitalized, tr.en)
		}
	}
	return result
}

// FormatISODuration converts an ISO-8601 duration ("PT1H2M3S") into the
// "H:MM:SS" / "M:SS" display form. Components other than H/M/S are skipped,
// so day-bearing forms like "P1DT2H3M" from long livestreams still format.
// Strings with no time component at all yield "".
func FormatISODuration(iso string) string {
	var hours, mins, secs int
	var number strings.Builder
	seen := false
	for _, ch := range strings.TrimSpace(iso) {
		if ch >= '0' && ch <= '9' {
			number.WriteRune(ch)
			continue
		}
		val, _ := strconv.Atoi(number.String())
		switch ch {
		case 'H':
			hours = val
			seen = true
		case 'M':
			mins = val
			seen = true
		case 'S':
			secs = val
			seen = true
		}
		number.Reset()
	}
	if !seen {
		return ""
	}
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatSeconds renders a length in seconds as "H:MM:SS" / "M:SS".
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
