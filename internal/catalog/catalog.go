// Package catalog turns raw extractor format records into the ranked download
// options offered to the user.
package catalog

import (
	"strconv"
	"strings"

	"velvetdown/internal/entity"
)

// Video resolution buckets offered to the user, highest first.
var bucketHeights = []int{1080, 720, 480, 144}

// Extensions accepted for audio-only formats.
var audioExts = map[string]bool{
	"mp3":  true,
	"m4a":  true,
	"webm": true,
	"aac":  true,
}

// drcMarker flags loudness-normalized duplicates of an audio stream.
const drcMarker = "-drc"

// Build classifies, deduplicates and ranks raw format records. Records with
// both streams become video candidates bucketed by resolution, audio-only
// records become audio candidates keyed by extension. Within a key the larger
// size wins and ties keep the earlier record. Malformed records are skipped,
// never fatal.
func Build(records []entity.FormatRecord) entity.Catalog {
	videoByHeight := make(map[int]entity.VideoFormat)
	audioByExt := make(map[string]entity.AudioFormat)

	var audioOrder []string

	for _, rec := range records {
		switch {
		case rec.HasVideo() && rec.HasAudio():
			height, ok := parseHeight(rec.Resolution)
			if !ok || !allowedHeight(height) {
				continue
			}

			current, exists := videoByHeight[height]
			if exists && rec.SizeBytes() <= current.Size {
				continue
			}

			videoByHeight[height] = entity.VideoFormat{
				Bucket:     strconv.Itoa(height) + "p",
				FormatCode: rec.ID,
				Ext:        rec.Ext,
				Size:       rec.SizeBytes(),
				SizeLabel:  rec.SizeLabel(),
				Note:       rec.Note,
			}
		case rec.HasAudio():
			ext := strings.ToLower(rec.Ext)
			if !audioExts[ext] {
				continue
			}

			if rec.Protocol != "" && rec.Protocol != "https" {
				continue
			}

			if strings.Contains(strings.ToLower(rec.ID), drcMarker) {
				continue
			}

			current, exists := audioByExt[ext]
			if !exists {
				audioOrder = append(audioOrder, ext)
			} else if rec.SizeBytes() <= current.Size {
				continue
			}

			audioByExt[ext] = entity.AudioFormat{
				Ext:        ext,
				FormatCode: rec.ID,
				Size:       rec.SizeBytes(),
				SizeLabel:  rec.SizeLabel(),
				Note:       rec.Note,
			}
		}
	}

	var cat entity.Catalog

	for _, height := range bucketHeights {
		if v, ok := videoByHeight[height]; ok {
			cat.Video = append(cat.Video, v)
		}
	}

	for _, ext := range audioOrder {
		cat.Audio = append(cat.Audio, audioByExt[ext])
	}

	return cat
}

func allowedHeight(height int) bool {
	for _, h := range bucketHeights {
		if height == h {
			return true
		}
	}

	return false
}

// parseHeight extracts the height from a strict "WIDTHxHEIGHT" string. Any
// other shape, "audio only" included, is rejected.
func parseHeight(resolution string) (int, bool) {
	width, height, ok := strings.Cut(resolution, "x")
	if !ok {
		return 0, false
	}

	if _, err := strconv.Atoi(width); err != nil {
		return 0, false
	}

	h, err := strconv.Atoi(height)
	if err != nil {
		return 0, false
	}

	return h, true
}
