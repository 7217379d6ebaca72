package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-timer/internal/response"
	"github.com/stemsi/exstem-timer/internal/service"
)

// ContextKeyTicket is the Gin context key for validated ticket claims.
const ContextKeyTicket = "ticket"

// TicketValidator validates timer tickets.
type TicketValidator interface {
	Validate(token string) (*service.TicketClaims, error)
}

// RequireTimerTicket validates a ticket from the query param ?ticket=...
// and checks it was issued for the :id and :n of the route.
// Used for WebSocket upgrade requests, which cannot carry headers.
func RequireTimerTicket(tickets TicketValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("ticket")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTicketRequired)
			return
		}

		claims, err := tickets.Validate(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTicketInvalid)
			return
		}

		if claims.TestID.String() != c.Param("id") || strconv.Itoa(claims.Question) != c.Param("n") {
			response.AbortFail(c, http.StatusForbidden, response.ErrTicketMismatch)
			return
		}

		c.Set(ContextKeyTicket, claims)
		c.Next()
	}
}

// GetTicket retrieves the ticket claims from the Gin context.
func GetTicket(c *gin.Context) *service.TicketClaims {
	val, exists := c.Get(ContextKeyTicket)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.TicketClaims)
	if !ok {
		return nil
	}
	return claims
}
