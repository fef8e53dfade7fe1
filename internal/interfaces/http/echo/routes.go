package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, jobHandler *JobHandler) {
	server.POST("/api/v1/jobs", jobHandler.CreateJob)
	server.GET("/api/v1/jobs/:id", jobHandler.GetJob)
	server.POST("/api/v1/jobs/:id/retry", jobHandler.RetryJob)
}
