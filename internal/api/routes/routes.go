package routes

import (
	"github.com/gin-gonic/gin"

	"callscribe/internal/api/handlers"
)

type Deps struct {
	Calls   *handlers.CallHandler
	Webhook *handlers.WebhookHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	r.GET("/calls", d.Calls.List)
	r.GET("/calls/:id", d.Calls.Get)

	r.POST("/twilio/voice", d.Webhook.Voice)
	r.POST("/twilio/recording-callback", d.Webhook.RecordingCallback)
}
