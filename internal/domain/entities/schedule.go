package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a bookable time-of-day slot, stored as minutes since midnight.
// External labels ("09:00", "9:00 AM") are converted at the boundary; slots are
// never compared as strings.
type TimeOfDay int

const minutesPerDay = 24 * 60

// DisplayFormat selects how slots are rendered to clients.
type DisplayFormat string

const (
	DisplayFormat24h DisplayFormat = "24h"
	DisplayFormat12h DisplayFormat = "12h"
)

// ParseDisplayFormat parses a configured display format, defaulting to 24h.
func ParseDisplayFormat(s string) (DisplayFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "24h":
		return DisplayFormat24h, nil
	case "12h":
		return DisplayFormat12h, nil
	default:
		return "", fmt.Errorf("unknown slot display format %q", s)
	}
}

// NewTimeOfDay builds a TimeOfDay from a 24-hour clock reading.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %02d:%02d out of range", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay parses label and panics on failure. Intended for fixtures and tests.
func MustTimeOfDay(label string) TimeOfDay {
	t, err := ParseTimeOfDay(label)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay accepts "HH:MM" (24-hour) or "hh:mm AM"/"hh:mm PM" (12-hour).
func ParseTimeOfDay(label string) (TimeOfDay, error) {
	s := strings.TrimSpace(label)
	if s == "" {
		return 0, fmt.Errorf("empty time label")
	}

	upper := strings.ToUpper(s)
	meridiem := ""
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		meridiem = upper[len(upper)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hourPart, minutePart, ok := strings.Cut(s, ":")
	if !ok || len(minutePart) != 2 || len(hourPart) == 0 || len(hourPart) > 2 ||
		!allDigits(hourPart) || !allDigits(minutePart) {
		return 0, fmt.Errorf("invalid time label %q", label)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("invalid time label %q", label)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, fmt.Errorf("invalid time label %q", label)
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid 12-hour time label %q", label)
		}
		hour %= 12
		if meridiem == "PM" {
			hour += 12
		}
	}

	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		return 0, fmt.Errorf("invalid time label %q: %w", label, err)
	}
	return t, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Hour returns the 24-hour clock hour.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute within the hour.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Valid reports whether t falls within a single day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < minutesPerDay }

// String renders the canonical "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Format renders t in the requested display format.
func (t TimeOfDay) Format(f DisplayFormat) string {
	if f != DisplayFormat12h {
		return t.String()
	}
	hour := t.Hour()
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, t.Minute(), meridiem)
}

// MarshalText implements encoding.TextMarshaler
func (t TimeOfDay) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("time of day %d out of range", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer; slots are stored as minutes since midnight.
func (t TimeOfDay) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("time of day %d out of range", int(t))
	}
	return int64(t), nil
}

// Scan implements sql.Scanner
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*t = TimeOfDay(v)
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("scan time of day: %w", err)
		}
		*t = TimeOfDay(n)
	default:
		return fmt.Errorf("scan time of day: unsupported type %T", src)
	}
	if !t.Valid() {
		return fmt.Errorf("scan time of day: %d out of range", int(*t))
	}
	return nil
}

// Weekday is a calendar weekday. The zero value is WeekdayUnknown so that a
// failed parse can never be mistaken for a real day.
type Weekday uint8

const (
	WeekdayUnknown Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	WeekdayUnknown: "Unknown",
	Monday:         "Monday",
	Tuesday:        "Tuesday",
	Wednesday:      "Wednesday",
	Thursday:       "Thursday",
	Friday:         "Friday",
	Saturday:       "Saturday",
	Sunday:         "Sunday",
}

// AllWeekdays lists the seven real weekdays starting on Monday.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday parses the fixed English weekday name. Matching is exact:
// "monday" and "Mon" are rejected.
func ParseWeekday(name string) (Weekday, error) {
	for _, d := range AllWeekdays {
		if weekdayNames[d] == name {
			return d, nil
		}
	}
	return WeekdayUnknown, fmt.Errorf("unknown weekday %q", name)
}

// WeekdayFromTime converts a time.Weekday.
func WeekdayFromTime(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekday(d)
}

// Valid reports whether d is one of the seven real weekdays.
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if int(d) >= len(weekdayNames) {
		return weekdayNames[WeekdayUnknown]
	}
	return weekdayNames[d]
}

// MarshalText implements encoding.TextMarshaler
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CivilDate is a calendar date with no time zone attached.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

const civilDateLayout = "2006-01-02"

// ParseCivilDate parses a strict YYYY-MM-DD date; impossible dates such as
// 2025-02-30 are rejected.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse(civilDateLayout, strings.TrimSpace(s))
	if err != nil {
		return CivilDate{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return CivilDateOf(t), nil
}

// CivilDateOf returns the date t falls on in t's own location.
func CivilDateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// Today returns the current civil date in loc.
func Today(now time.Time, loc *time.Location) CivilDate {
	if loc == nil {
		loc = time.UTC
	}
	return CivilDateOf(now.In(loc))
}

// Midnight returns UTC midnight of the date. Weekday computation is anchored
// here so that the host time zone can never shift the day.
func (d CivilDate) Midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the Gregorian weekday of the date.
func (d CivilDate) Weekday() Weekday {
	return WeekdayFromTime(d.Midnight().Weekday())
}

// IsZero reports whether d is the zero date.
func (d CivilDate) IsZero() bool { return d == CivilDate{} }

// Before reports whether d is strictly earlier than other.
func (d CivilDate) Before(other CivilDate) bool {
	return d.Midnight().Before(other.Midnight())
}

// AddDays returns the date n days after d.
func (d CivilDate) AddDays(n int) CivilDate {
	return CivilDateOf(d.Midnight().AddDate(0, 0, n))
}

func (d CivilDate) String() string {
	return d.Midnight().Format(civilDateLayout)
}

// MarshalText implements encoding.TextMarshaler
func (d CivilDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *CivilDate) UnmarshalText(text []byte) error {
	parsed, err := ParseCivilDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer for DATE columns.
func (d CivilDate) Value() (driver.Value, error) {
	return d.Midnight(), nil
}

// Scan implements sql.Scanner
func (d *CivilDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = CivilDateOf(v)
		return nil
	case []byte:
		return d.UnmarshalText(v)
	case string:
		return d.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("scan civil date: unsupported type %T", src)
	}
}

// WeeklyAvailabilityPattern is a doctor's recurring weekly template of open
// slots. A nil pattern means the doctor has no pattern at all, which is a
// data-integrity problem; an empty pattern means no bookable days.
type WeeklyAvailabilityPattern map[Weekday][]TimeOfDay

// ParseWeeklyPattern converts the external form (weekday name -> time labels)
// into canonical values. Labels may be in either 24-hour or 12-hour form, but
// duplicates within one day are rejected after conversion.
func ParseWeeklyPattern(raw map[string][]string) (WeeklyAvailabilityPattern, error) {
	if raw == nil {
		return nil, nil
	}

	pattern := make(WeeklyAvailabilityPattern, len(raw))
	for name, labels := range raw {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}

		seen := make(map[TimeOfDay]struct{}, len(labels))
		times := make([]TimeOfDay, 0, len(labels))
		for _, label := range labels {
			t, err := ParseTimeOfDay(label)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if _, dup := seen[t]; dup {
				return nil, fmt.Errorf("%s: duplicate time %s", name, t)
			}
			seen[t] = struct{}{}
			times = append(times, t)
		}
		pattern[day] = times
	}
	return pattern, nil
}

// Labels renders the pattern in the requested display format.
func (p WeeklyAvailabilityPattern) Labels(f DisplayFormat) map[string][]string {
	if p == nil {
		return nil
	}
	out := make(map[string][]string, len(p))
	for day, times := range p {
		labels := make([]string, len(times))
		for i, t := range times {
			labels[i] = t.Format(f)
		}
		out[day.String()] = labels
	}
	return out
}

// Days returns the weekdays with at least one slot, Monday first.
func (p WeeklyAvailabilityPattern) Days() []Weekday {
	days := make([]Weekday, 0, len(p))
	for _, d := range AllWeekdays {
		if len(p[d]) > 0 {
			days = append(days, d)
		}
	}
	return days
}

// MarshalJSON implements json.Marshaler using canonical 24-hour labels.
func (p WeeklyAvailabilityPattern) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.Labels(DisplayFormat24h))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *WeeklyAvailabilityPattern) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode availability pattern: %w", err)
	}
	parsed, err := ParseWeeklyPattern(raw)
	if err != nil {
		return fmt.Errorf("decode availability pattern: %w", err)
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer for the JSONB availability column.
func (p WeeklyAvailabilityPattern) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return p.MarshalJSON()
}

// Scan implements sql.Scanner
func (p *WeeklyAvailabilityPattern) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return p.UnmarshalJSON(v)
	case string:
		return p.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("scan availability pattern: unsupported type %T", src)
	}
}
