package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/next-trace/scg-mdb-client/publisher"
)

// TopicParam selects topic mode when present, whatever its value.
const TopicParam = "topic"

// Sender runs one publish pass.
type Sender interface {
	Send(ctx context.Context, useTopic bool) []publisher.Report
}

// Controller serves the publish endpoint and health check.
type Controller struct {
	sender Sender
}

// NewController constructs the HTTP publish controller.
func NewController(s Sender) *Controller {
	return &Controller{sender: s}
}

// Send runs a publish pass and renders the per-destination report. Destination
// failures are part of the page; the status is always 200.
func (c *Controller) Send(ctx echo.Context) error {
	reports := c.sender.Send(ctx.Request().Context(), useTopic(ctx))

	body, err := RenderReport(reports)
	if err != nil {
		return err
	}

	return ctx.HTMLBlob(http.StatusOK, body)
}

// Health reports liveness.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func useTopic(ctx echo.Context) bool {
	if _, ok := ctx.QueryParams()[TopicParam]; ok {
		return true
	}

	if ctx.Request().Method != http.MethodPost {
		return false
	}

	form, err := ctx.FormParams()
	if err != nil {
		return false
	}

	_, ok := form[TopicParam]

	return ok
}
