package loader

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"

	"go.uber.org/zap"
)

const (
	defaultWatchURL   = "https://www.youtube.com/watch"
	captionTracksKey  = `"captionTracks":`
	maxWatchPageBytes = 8 << 20
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// TranscriptLoader fetches the caption track of a YouTube video and yields
// one timed segment per caption line.
type TranscriptLoader struct {
	client   *http.Client
	watchURL string
	language string
}

// NewTranscriptLoader creates a loader that prefers captions in language.
func NewTranscriptLoader(client *http.Client, language string) *TranscriptLoader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if language == "" {
		language = "en"
	}
	return &TranscriptLoader{client: client, watchURL: defaultWatchURL, language: language}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

// Load downloads the transcript of the video at src.URL.
func (l *TranscriptLoader) Load(ctx context.Context, src domain.Source) (*domain.Document, error) {
	videoID, err := ParseVideoID(src.URL)
	if err != nil {
		return nil, err
	}

	tracks, err := l.captionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	track, ok := pickTrack(tracks, l.language)
	if !ok {
		return nil, domain.NewSourceUnavailableError("video has no captions", nil).WithContext("video_id", videoID)
	}

	body, err := l.get(ctx, track.BaseURL)
	if err != nil {
		return nil, domain.NewSourceUnavailableError("failed to download transcript", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, domain.NewSourceUnavailableError("failed to parse transcript", err)
	}

	doc := &domain.Document{
		SourceType: domain.SourceTypeVideo,
		Title:      src.URL,
	}
	for _, line := range tt.Lines {
		text := strings.Join(strings.Fields(html.UnescapeString(line.Body)), " ")
		if text == "" {
			continue
		}
		doc.Segments = append(doc.Segments, domain.Segment{
			SourceID: videoID,
			Text:     text,
			Position: len(doc.Segments),
			Start:    parseSeconds(line.Start),
			Duration: parseSeconds(line.Dur),
		})
	}

	logger.Get().Info("Transcript fetched",
		zap.String("video_id", videoID),
		zap.String("language", track.LanguageCode),
		zap.Int("lines", len(doc.Segments)),
	)
	return doc, nil
}

func (l *TranscriptLoader) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	u := l.watchURL + "?" + url.Values{"v": {videoID}}.Encode()
	page, err := l.get(ctx, u)
	if err != nil {
		return nil, domain.NewSourceUnavailableError("failed to fetch video page", err)
	}

	idx := strings.Index(string(page), captionTracksKey)
	if idx < 0 {
		return nil, domain.NewSourceUnavailableError("video has no captions", nil).WithContext("video_id", videoID)
	}

	var tracks []captionTrack
	dec := json.NewDecoder(strings.NewReader(string(page[idx+len(captionTracksKey):])))
	if err := dec.Decode(&tracks); err != nil {
		return nil, domain.NewSourceUnavailableError("failed to read caption tracks", err)
	}
	return tracks, nil
}

func (l *TranscriptLoader) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", l.language)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxWatchPageBytes))
}

// pickTrack prefers a manual track in the requested language, then an
// automatic one, then a regional variant, then whatever comes first.
func pickTrack(tracks []captionTrack, language string) (captionTrack, bool) {
	if len(tracks) == 0 {
		return captionTrack{}, false
	}
	var auto, regional *captionTrack
	for i := range tracks {
		t := &tracks[i]
		switch {
		case t.LanguageCode == language && t.Kind != "asr":
			return *t, true
		case t.LanguageCode == language && auto == nil:
			auto = t
		case strings.HasPrefix(t.LanguageCode, language+"-") && regional == nil:
			regional = t
		}
	}
	if auto != nil {
		return *auto, true
	}
	if regional != nil {
		return *regional, true
	}
	return tracks[0], true
}

// ParseVideoID extracts the 11 character id from the usual YouTube URL forms.
func ParseVideoID(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", domain.NewInvalidInputError(fmt.Sprintf("not a video URL: %q", rawURL))
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	host = strings.TrimPrefix(host, "music.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = segments[0]
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2 && (segments[0] == "embed" || segments[0] == "shorts" || segments[0] == "live" || segments[0] == "v"):
			id = segments[1]
		}
	}

	if !videoIDPattern.MatchString(id) {
		return "", domain.NewInvalidInputError(fmt.Sprintf("not a video URL: %q", rawURL))
	}
	return id, nil
}

func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
