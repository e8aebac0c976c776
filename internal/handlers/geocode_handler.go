package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/geocode"
	"github.com/joshua-takyi/rolecerto/internal/helpers"
	"github.com/joshua-takyi/rolecerto/internal/notify"
)

// Geocoder resolves free text and map points into addresses.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]geocode.Place, error)
	Reverse(ctx context.Context, lat, lng float64) (*geocode.Place, error)
}

func SearchAddress(g Geocoder, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if len(q) < 3 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("Digite pelo menos 3 caracteres."))
			return
		}

		places, err := g.Search(c.Request.Context(), q)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(places, ""))
	}
}

// ReverseGeocode resolves the address of a map pin given as ?lat=&lng=.
func ReverseGeocode(g Geocoder, toaster *notify.Toaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid coordinates"))
			return
		}

		place, err := g.Reverse(c.Request.Context(), lat, lng)
		if err != nil {
			respondError(c, toaster, err, "")
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(place, ""))
	}
}
