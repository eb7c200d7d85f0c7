package stt

import "context"

// Provider is the transcription engine boundary: audio bytes in, transcript
// text out. Implementations must respect ctx deadlines; a hard failure here
// is processing-fatal for the record.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
