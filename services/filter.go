package services

import (
	"strconv"
	"strings"
	"time"

	"wccleanup/repositories"
)

const (
	ActionDeleteAll         = "delete_all"
	ActionDeleteSelected    = "delete_selected"
	ActionDeleteExcept      = "delete_except"
	ActionDeleteByStatus    = "delete_by_status"
	ActionDeleteByDateRange = "delete_by_date_range"
)

const dayLayout = "2006-01-02"

// FilterInput is the raw, user-supplied narrowing of a listing or deletion.
type FilterInput struct {
	Status   string
	DateFrom string
	DateTo   string
	Search   string
}

// parseDay accepts only a zero-padded YYYY-MM-DD calendar date.
func parseDay(value string) (time.Time, bool) {
	day, err := time.Parse(dayLayout, value)
	if err != nil || day.Format(dayLayout) != value {
		return time.Time{}, false
	}
	return day, true
}

type dayRange struct {
	from time.Time
	to   time.Time
}

// parseDayRange returns nil when both bounds are empty. A single bound covers that one day.
func parseDayRange(from, to string) (*dayRange, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}

	start, ok := parseDay(from)
	if !ok {
		return nil, invalidFilter(msgInvalidDate)
	}
	end, ok := parseDay(to)
	if !ok {
		return nil, invalidFilter(msgInvalidDate)
	}
	if end.Before(start) {
		return nil, invalidFilter("The start date must not be after the end date.")
	}
	return &dayRange{from: start, to: end}, nil
}

// requireDayRange is the strict form used by delete_by_date_range: both bounds must be present.
func requireDayRange(from, to string) (*dayRange, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil, invalidFilter(msgInvalidDate)
	}
	return parseDayRange(from, to)
}

const datetimeLayout = "2006-01-02 15:04:05"

// gmtDatetimes expands the range to whole days of the store's timezone, then converts
// the bounds to the GMT DATETIME form order dates are stored in. A nil loc means UTC.
func (r *dayRange) gmtDatetimes(loc *time.Location) *repositories.DateRange {
	if r == nil {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(r.from.Year(), r.from.Month(), r.from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(r.to.Year(), r.to.Month(), r.to.Day(), 23, 59, 59, 0, loc)
	return &repositories.DateRange{
		From: start.UTC().Format(datetimeLayout),
		To:   end.UTC().Format(datetimeLayout),
	}
}

// compact expands the range to whole days in the YmdHis form bookings store.
func (r *dayRange) compact() *repositories.DateRange {
	if r == nil {
		return nil
	}
	return &repositories.DateRange{
		From: r.from.Format("20060102") + "000000",
		To:   r.to.Format("20060102") + "235959",
	}
}

// splitStatuses turns "wc-pending, processing" into ["pending", "processing"].
func splitStatuses(raw string) []string {
	var statuses []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		status := strings.TrimPrefix(strings.TrimSpace(part), "wc-")
		if status == "" || seen[status] {
			continue
		}
		seen[status] = true
		statuses = append(statuses, status)
	}
	return statuses
}

// uniqueIDs drops zero and repeated ids, keeping the first occurrence.
func uniqueIDs(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// exceptIDs returns all minus keep, preserving the order of all.
func exceptIDs(all []uint64, keep []uint64) []uint64 {
	skip := make(map[uint64]struct{}, len(keep))
	for _, id := range keep {
		skip[id] = struct{}{}
	}
	out := make([]uint64, 0, len(all))
	for _, id := range all {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
