package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorCase maps a usecase sentinel to an HTTP status code and response
// message. Handlers declare their case tables inline, which keeps the full
// status surface of an endpoint readable in one place; the OTP endpoints rely
// on this to guarantee every challenge-state sentinel lands on the same
// generic message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError matches err against the cases with errors.Is and
// writes the mapped response, falling back to the provided status and message
// for anything unmapped. Wrapped errors match through their chain.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}
