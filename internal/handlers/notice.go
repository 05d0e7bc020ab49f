// internal/handlers/notice.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/settly-kr/settly-backend/internal/services"
)

type NoticeHandler struct {
	noticeService *services.NoticeService
}

func NewNoticeHandler(noticeService *services.NoticeService) *NoticeHandler {
	return &NoticeHandler{noticeService: noticeService}
}

// GET /notices/stream
//
// Server-sent events stream of toast notifications. The subscription is
// released when the client disconnects.
func (h *NoticeHandler) Stream(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	id, ch := h.noticeService.Subscribe()
	defer h.noticeService.Unsubscribe(id)

	for {
		select {
		case notice, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(notice)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
