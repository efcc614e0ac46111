package httpapi

import "github.com/gin-gonic/gin"

// Register wires the public and guest-protected routes onto r.
func Register(r *gin.Engine, h Handlers, guestMW gin.HandlerFunc) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// public
	v1.POST("/guest", h.CreateGuest)
	v1.GET("/agents", h.ListAgents)
	v1.GET("/stats/roasts", h.RoastCount)

	// guest-protected
	roasts := v1.Group("/roasts")
	roasts.Use(guestMW)
	{
		roasts.POST("", h.SubmitRoast)
		roasts.POST("/consent", h.ConfirmConsent)
		roasts.POST("/plan", h.SelectPlan)
		roasts.POST("/plan/back", h.BackToPlans)
		roasts.POST("/payment", h.ConfirmPayment)
		roasts.POST("/ack", h.AcknowledgePayment)
		roasts.GET("/session", h.GetSession)
		roasts.DELETE("/session", h.ResetSession)
		roasts.GET("/history", h.ListHistory)
	}
}
