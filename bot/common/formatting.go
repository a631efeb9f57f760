package common

import (
	"fmt"
	"strings"
	"time"

	"zhigulbot/models"

	"github.com/shopspring/decimal"
)

// FormatBalance formats a balance amount with thousand separators
func FormatBalance(balance int64) string {
	if balance < 0 {
		return "-" + FormatBalance(-balance)
	}

	str := fmt.Sprintf("%d", balance)
	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}

// FormatPayout formats a payout with an explicit sign
func FormatPayout(payout int64) string {
	if payout > 0 {
		return "+" + FormatBalance(payout)
	}
	return FormatBalance(payout)
}

// FormatPrice trims prices to two decimals for display
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(2)
}

// FormatDirection returns the direction with its emoji
func FormatDirection(direction models.Direction) string {
	switch direction {
	case models.DirectionUp:
		return "🚀 up"
	case models.DirectionDown:
		return "🚽 down"
	default:
		return string(direction)
	}
}

// FormatInterval renders a settlement interval the way players read it
func FormatInterval(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return d.String()
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
