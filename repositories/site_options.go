package repositories

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"wccleanup/logger"

	"github.com/doug-martin/goqu/v9"
	"gorm.io/gorm"
)

type optionRow struct {
	Name  string `gorm:"column:option_name"`
	Value string `gorm:"column:option_value"`
}

// SiteLocation reads the store's timezone the way WordPress resolves it:
// timezone_string first, then the numeric gmt_offset, then UTC.
func SiteLocation(ctx context.Context, db *gorm.DB, tables Tables) (*time.Location, error) {
	var rows []optionRow
	err := scanInto(ctx, db, selectFrom(tables.Options()).
		Select("option_name", "option_value").
		Where(goqu.C("option_name").In("timezone_string", "gmt_offset")), &rows)
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	for _, row := range rows {
		values[row.Name] = row.Value
	}
	return ParseSiteLocation(values["timezone_string"], values["gmt_offset"]), nil
}

// ParseSiteLocation turns the two WordPress timezone options into a location.
func ParseSiteLocation(timezoneString, gmtOffset string) *time.Location {
	if name := strings.TrimSpace(timezoneString); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
		logger.Warnf("unknown timezone_string %q, falling back to gmt_offset", name)
	}
	hours, err := strconv.ParseFloat(strings.TrimSpace(gmtOffset), 64)
	if err != nil || hours == 0 {
		return time.UTC
	}
	seconds := int(math.Round(hours * 3600))
	sign := "+"
	if seconds < 0 {
		sign = "-"
	}
	abs := seconds
	if abs < 0 {
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, abs%3600/60), seconds)
}
