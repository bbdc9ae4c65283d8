// Package devserver serves the backup handler over plain HTTP for local runs.
package devserver

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
)

// Route is where the relay listens, matching the hosted function path
const Route = "/api/send-backup"

// Handler is the proxy-event entry point being served
type Handler interface {
	Handle(context.Context, *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// NewRouter returns a gin engine serving h. Bodies are read up to one byte
// past maxBody so the handler still sees, and rejects, an oversized request.
func NewRouter(h Handler, maxBody int64) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.Any("/send-backup", relay(h, maxBody))
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})
	}

	return router
}

func relay(h Handler, maxBody int64) gin.HandlerFunc {
	return func(c *gin.Context) {

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "could not read request body: " + err.Error()})
			return
		}

		req := events.APIGatewayProxyRequest{
			Resource:              Route,
			Path:                  c.Request.URL.Path,
			HTTPMethod:            c.Request.Method,
			Headers:               map[string]string{},
			QueryStringParameters: map[string]string{},
			Body:                  string(body),
		}
		for k, v := range c.Request.Header {
			req.Headers[k] = strings.Join(v, ",")
		}
		for k, v := range c.Request.URL.Query() {
			req.QueryStringParameters[k] = strings.Join(v, ",")
		}

		res, err := h.Handle(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}

		ct := "application/json"
		for k, v := range res.Headers {
			if strings.EqualFold(k, "Content-Type") {
				ct = v
				continue
			}
			c.Header(k, v)
		}
		c.Data(res.StatusCode, ct, []byte(res.Body))
	}
}
