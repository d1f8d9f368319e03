package httpapi

import "github.com/gin-gonic/gin"

// Register wires the public API onto r.
func Register(r gin.IRouter, h Handlers) {
	r.GET("/", h.Root)
	r.GET("/health", h.HealthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/conversation", h.Conversation)

		call := v1.Group("/call")
		call.POST("/initiate", h.InitiateCall)
		call.GET("/:call_id", h.GetCall)
		call.GET("/:call_id/transcript", h.GetTranscript)
		call.POST("/:call_id/end", h.EndCall)

		v1.GET("/history", h.History)
		v1.GET("/history/summary", h.HistorySummary)

		v := v1.Group("/voice")
		v.POST("/text-to-speech", h.TextToSpeech)
		v.POST("/speech-to-text", h.SpeechToText)
	}
}
