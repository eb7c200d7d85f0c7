package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxRecordingBytes bounds a single fetched recording (roughly an hour of
// uncompressed telephony WAV).
const maxRecordingBytes = 256 << 20

// FetchAudio retrieves recording bytes referenced by a webhook. Providers
// often hand out URLs without an extension; those default to .wav. The
// returned ext includes the leading dot.
func FetchAudio(ctx context.Context, client *http.Client, rawURL string) (data []byte, ext string, err error) {
	if client == nil {
		client = http.DefaultClient
	}

	fetchURL := rawURL
	switch {
	case strings.HasSuffix(rawURL, ".wav"):
		ext = ".wav"
	case strings.HasSuffix(rawURL, ".mp3"):
		ext = ".mp3"
	default:
		fetchURL = rawURL + ".wav"
		ext = ".wav"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch recording: unexpected status %d", resp.StatusCode)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxRecordingBytes))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("fetch recording: empty body")
	}
	return data, ext, nil
}
