package handlers

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"callscribe/internal/ingest"
	"callscribe/internal/utils"
)

// WebhookHandler is the webhook ingestion adapter: Twilio announces a
// finished recording with a fetch URL, and the adapter pulls the audio
// itself before handing off to the shared ingestor.
type WebhookHandler struct {
	ing          *ingest.Ingestor
	client       *http.Client
	fetchTimeout time.Duration
	callbackURL  string // overrides the host-derived recording callback
}

func NewWebhookHandler(ing *ingest.Ingestor, fetchTimeout time.Duration, callbackURL string) *WebhookHandler {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &WebhookHandler{
		ing:          ing,
		client:       &http.Client{},
		fetchTimeout: fetchTimeout,
		callbackURL:  callbackURL,
	}
}

type twimlResponse struct {
	XMLName xml.Name    `xml:"Response"`
	Say     twimlSay    `xml:"Say"`
	Record  twimlRecord `xml:"Record"`
}

type twimlSay struct {
	Voice string `xml:"voice,attr"`
	Text  string `xml:",chardata"`
}

type twimlRecord struct {
	Callback  string `xml:"recordingStatusCallback,attr"`
	MaxLength int    `xml:"maxLength,attr"`
	PlayBeep  bool   `xml:"playBeep,attr"`
}

// Voice answers an inbound call with TwiML that records it and points the
// recording callback back at this service.
func (h *WebhookHandler) Voice(c *gin.Context) {
	callback := h.callbackURL
	if callback == "" {
		callback = "https://" + c.Request.Host + "/twilio/recording-callback"
	}

	body, err := xml.Marshal(twimlResponse{
		Say: twimlSay{
			Voice: "alice",
			Text:  "This call may be recorded for quality and training purposes.",
		},
		Record: twimlRecord{
			Callback:  callback,
			MaxLength: 3600,
			PlayBeep:  true,
		},
	})
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "WebhookHandler.Voice", "failed to render response", err))
		return
	}
	c.Data(http.StatusOK, "application/xml", append([]byte(xml.Header), body...))
}

// RecordingCallback ingests one finished recording. A missing fetch URL is a
// client error and a failed fetch a server error; neither creates a record.
func (h *WebhookHandler) RecordingCallback(c *gin.Context) {
	const op = "WebhookHandler.RecordingCallback"

	recordingURL := c.PostForm("RecordingUrl")
	if recordingURL == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing RecordingUrl", nil))
		return
	}

	callSid := c.PostForm("CallSid")
	if callSid == "" {
		callSid = fmt.Sprintf("local-%d", time.Now().Unix())
	}

	fetchCtx, cancel := context.WithTimeout(c.Request.Context(), h.fetchTimeout)
	defer cancel()
	data, ext, err := ingest.FetchAudio(fetchCtx, h.client, recordingURL)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "failed to fetch recording", err))
		return
	}

	contentType := "audio/wav"
	if ext == ".mp3" {
		contentType = "audio/mpeg"
	}

	_, err = h.ing.Ingest(c.Request.Context(), ingest.Input{
		SourceRef:     callSid,
		CandidateName: "twilio-" + callSid + ext,
		ContentType:   contentType,
		Data:          data,
		FromParty:     c.PostForm("From"),
		ToParty:       c.PostForm("To"),
		Metadata: map[string]any{
			"provider":      "twilio",
			"recording_url": recordingURL,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.String(http.StatusOK, "OK")
}
