// 集計結果と動画の情報をFirestoreにエクスポートする
package main

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	channelCollection = "Channel"
	videoCollection   = "Video"

	// Firestoreのバッチは500件まで
	maxBatchWrites = 500
)

type channelDoc struct {
	channelSummary
	LatestRunID string    `firestore:"latestRunID"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

type firestoreExporter struct {
	client *firestore.Client
}

func newFirestoreExporter(client *firestore.Client) *firestoreExporter {
	return &firestoreExporter{client: client}
}

func (e *firestoreExporter) export(ctx context.Context, runID string, summary channelSummary, videos []videoRecord) error {
	channelRef := e.client.Collection(channelCollection).Doc(summary.ChannelID)

	s, err := channelRef.Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}

	if s != nil && s.Exists() {
		var prev channelDoc
		if err := s.DataTo(&prev); err == nil {
			logger.Info().
				Str("channel", summary.ChannelID).
				Int("prev", prev.NumCCVids).
				Int("now", summary.NumCCVids).
				Msg("cc video count changed since last export")
		}
	}

	videoCol := e.client.Collection(videoCollection)
	for start := 0; start < len(videos); start += maxBatchWrites {
		end := start + maxBatchWrites
		if end > len(videos) {
			end = len(videos)
		}

		batch := e.client.Batch()
		for _, v := range videos[start:end] {
			batch.Set(videoCol.Doc(v.ID), v)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return err
		}
	}

	_, err = channelRef.Set(ctx, channelDoc{
		channelSummary: summary,
		LatestRunID:    runID,
		UpdatedAt:      time.Now(),
	})
	if err != nil {
		return err
	}

	logger.Info().Int("videos", len(videos)).Str("channel", summary.ChannelID).Msg("export to firestore")
	return nil
}
