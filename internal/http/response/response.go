package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondParamError reports a bad request field by name.
func RespondParamError(c *gin.Context, param string, err error) {
	msg := "invalid " + param
	if err != nil {
		msg = err.Error()
	}
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    "invalid_param",
			Param:   param,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
