package clock

import (
	"fmt"
	"time"
)

var thaiMonthsShort = [...]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

// buddhistEraOffset converts a Gregorian year to the Thai Buddhist era.
const buddhistEraOffset = 543

// ThaiDate renders t like "18 ต.ค. 2569".
func ThaiDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), thaiMonthsShort[t.Month()-1], t.Year()+buddhistEraOffset)
}

// ThaiTime renders t as 24h "HH:MM".
func ThaiTime(t time.Time) string {
	return t.Format("15:04")
}

// ThaiDateString renders a YYYY-MM-DD civil date, or returns it unchanged
// when it does not parse.
func ThaiDateString(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return ThaiDate(t)
}
