package main

import "time"

// durationStats 動画の長さの合計・最小・最大を集計する
// minは0より大きいものだけを対象にする
type durationStats struct {
	count int
	total time.Duration
	min   time.Duration
	max   time.Duration
}

func (s *durationStats) add(d time.Duration) {
	if d < 0 {
		d = 0
	}

	s.count++
	s.total += d

	if d > 0 && (s.min == 0 || d < s.min) {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
}

func (s *durationStats) average() time.Duration {
	if s.count == 0 {
		return 0
	}
	return s.total / time.Duration(s.count)
}

func (s *durationStats) summary(channel channelInfo) channelSummary {
	return channelSummary{
		ChannelName:   channel.Title,
		ChannelID:     channel.ID,
		NumCCVids:     s.count,
		TotalDuration: formatDuration(s.total),
		MinDuration:   formatDuration(s.min),
		MaxDuration:   formatDuration(s.max),
		AvgDuration:   formatDuration(s.average()),
	}
}
