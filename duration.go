package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationRegex = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

type errInvalidDuration string

func (s errInvalidDuration) Error() string {
	return fmt.Sprintf("invalid ISO-8601 duration: %q", string(s))
}

// 1年は365日、1ヶ月は30日
var durationUnits = [...]time.Duration{
	365 * 24 * time.Hour,
	30 * 24 * time.Hour,
	7 * 24 * time.Hour,
	24 * time.Hour,
	time.Hour,
	time.Minute,
}

// parseDuration contentDetails.durationの形式(PT1H2M3S, P0D など)をパースする
// time.Durationに収まらない値はエラーにする
func parseDuration(str string) (time.Duration, error) {
	matches := durationRegex.FindStringSubmatch(str)
	if matches == nil || str == "P" || strings.HasSuffix(str, "T") {
		return 0, errInvalidDuration(str)
	}

	var total float64
	for i, unit := range durationUnits {
		if matches[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(matches[i+1], 10, 64)
		if err != nil {
			return 0, errInvalidDuration(str)
		}
		total += float64(n) * float64(unit)
	}

	if matches[7] != "" {
		s, err := strconv.ParseFloat(strings.Replace(matches[7], ",", ".", 1), 64)
		if err != nil {
			return 0, errInvalidDuration(str)
		}
		total += s * float64(time.Second)
	}

	total = math.Round(total)
	if total >= math.MaxInt64 {
		return 0, errInvalidDuration(str)
	}
	return time.Duration(total), nil
}

// formatDuration 一番大きい単位から表示する
// 時間は24で折り返さない、1秒未満は切り捨て
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%d Hours, %d Minutes, %d Seconds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%d Minutes, %d Seconds", minutes, seconds)
	default:
		return fmt.Sprintf("%d Seconds", seconds)
	}
}
