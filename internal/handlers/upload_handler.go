package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/notify"
	"github.com/joshua-takyi/rolecerto/internal/services"
)

// UploadImage stores an image for an event cover (?kind=event&id=) or a pico
// photo (?kind=pico&id=) and returns its URL.
func UploadImage(m *services.MediaService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentUserOrAbort(c)
		if !ok {
			return
		}
		data, ok := readUpload(c)
		if !ok {
			return
		}

		var url string
		var err error
		switch c.DefaultQuery("kind", "event") {
		case "event":
			url, err = m.UploadEventImage(c.Request.Context(), c.Query("id"), data)
		case "pico":
			url, err = m.UploadPicoPhoto(c.Request.Context(), c.Query("id"), data)
		case "profile":
			url, err = m.UploadProfileImage(c.Request.Context(), claims.UserID, data)
		default:
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("kind must be event, pico or profile"))
			return
		}
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(gin.H{"url": url}, ""))
	}
}

func DeleteImage(m *services.MediaService, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserOrAbort(c); !ok {
			return
		}
		var req struct {
			URL string `json:"url" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("url is required"))
			return
		}

		if err := m.Delete(c.Request.Context(), req.URL); err != nil {
			respondError(c, toaster, err, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, ""))
	}
}
