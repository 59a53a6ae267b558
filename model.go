package main

import "time"

const watchURLPrefix = "https://www.youtube.com/watch?v="

type channelInfo struct {
	ID    string
	Title string
}

type videoInfo struct {
	ID       string
	Title    string
	Duration time.Duration
}

func (v videoInfo) watchURL() string {
	return watchURLPrefix + v.ID
}

// channelSummary channel_summary.jsonに書き出す集計結果
type channelSummary struct {
	ChannelName   string `json:"channel_name" firestore:"channelName"`
	ChannelID     string `json:"channel_id" firestore:"channelID"`
	NumCCVids     int    `json:"num_cc_vids" firestore:"numCCVids"`
	TotalDuration string `json:"total_duration" firestore:"totalDuration"`
	MinDuration   string `json:"min_duration" firestore:"minDuration"`
	MaxDuration   string `json:"max_duration" firestore:"maxDuration"`
	AvgDuration   string `json:"avg_duration" firestore:"avgDuration"`
}

type videoRecord struct {
	ID         string        `firestore:"id"`
	Title      string        `firestore:"title"`
	ChannelID  string        `firestore:"channelID"`
	Duration   time.Duration `firestore:"duration"`
	Downloaded bool          `firestore:"downloaded"`
	RunID      string        `firestore:"runID"`
	UpdatedAt  time.Time     `firestore:"updatedAt"`
}
