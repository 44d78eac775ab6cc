// Package timefmt 将消息时间戳格式化为相对时间文本，如 "Just now"、"Today at 15:04"。
package timefmt

import (
	"math"
	"time"

	"github.com/dustin/go-humanize/english"
)

const day = 24 * time.Hour

// Format 根据 now 返回 ts 的相对时间描述。纯函数，日历比较在 now 的时区内进行。
//
//	< 60s            Just now
//	< 1h             <n> minute(s) ago（四舍五入，范围 1-59）
//	同一天            Today at HH:MM
//	前一天            Yesterday at HH:MM
//	< 7 天           <n> day(s) ago
//	其他              Jan 2（跨年时追加 ", 2006"）
func Format(ts, now time.Time) string {
	delta := now.Sub(ts)

	if delta < time.Minute {
		return "Just now"
	}

	if delta < time.Hour {
		n := int(math.Round(delta.Minutes()))
		if n < 1 {
			n = 1
		}
		if n > 59 {
			n = 59
		}
		return english.Plural(n, "minute", "") + " ago"
	}

	local := ts.In(now.Location())
	if sameDay(local, now) {
		return "Today at " + local.Format("15:04")
	}
	if sameDay(local, now.AddDate(0, 0, -1)) {
		return "Yesterday at " + local.Format("15:04")
	}

	if delta < 7*day {
		n := int(delta / day)
		return english.Plural(n, "day", "") + " ago"
	}

	if local.Year() != now.Year() {
		return local.Format("Jan 2, 2006")
	}
	return local.Format("Jan 2")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
