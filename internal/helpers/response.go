package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rolecerto/internal/models"
)

type ApiResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Code     string      `json:"code,omitempty"`
	Fields   interface{} `json:"fields,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
	Cursor   string      `json:"cursor,omitempty"`
	HasMore  bool        `json:"has_more,omitempty"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

// CursorResponse is a feed page with the token for the next one.
func CursorResponse(data interface{}, cursor string, hasMore bool) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Cursor:  cursor,
		HasMore: hasMore,
	}
}

// RedirectResponse tells the client where to go instead of rendering an error.
func RedirectResponse(err, redirect string) ApiResponse {
	return ApiResponse{
		Success:  false,
		Error:    err,
		Redirect: redirect,
	}
}

func AuthErrorResponse(ae *models.AuthError) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   ae.Message(),
		Code:    string(ae.Code),
	}
}

func FieldErrorsResponse(message string, fields interface{}) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   message,
		Fields:  fields,
	}
}

const refreshTokenMaxAge = 3600 * 24 * 30

// SetSessionCookies writes the auth cookies. Without remember they are session
// cookies and end with the browser.
func SetSessionCookies(c *gin.Context, session *models.AuthSession, remember, secure bool) {
	accessAge, refreshAge := 0, 0
	if remember {
		accessAge, refreshAge = session.ExpiresIn, refreshTokenMaxAge
	}
	c.SetCookie("access_token", session.AccessToken, accessAge, "/", "", secure, true)
	c.SetCookie("refresh_token", session.RefreshToken, refreshAge, "/", "", secure, true)
	if remember {
		c.SetCookie("remember_me", "1", refreshTokenMaxAge, "/", "", secure, true)
	} else {
		c.SetCookie("remember_me", "", -1, "/", "", secure, true)
	}
}

// Remembered reports whether the current session was opened with remember me.
func Remembered(c *gin.Context) bool {
	v, err := c.Cookie("remember_me")
	return err == nil && v == "1"
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
	c.SetCookie("remember_me", "", -1, "/", "", secure, true)
}
