package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stemsi/exstem-timer/internal/config"
)

// ErrInvalidTicket is returned for tickets that fail signature, expiry or
// claim checks.
var ErrInvalidTicket = errors.New("invalid ticket")

const ticketIssuer = "exstem-timer"

// TicketClaims binds a timer stream to one test question.
type TicketClaims struct {
	jwt.RegisteredClaims
	TestID   uuid.UUID `json:"test_id"`
	Question int       `json:"question"`
}

// TicketService issues and validates timer stream tickets.
type TicketService struct {
	cfg   *config.Config
	clock clockwork.Clock
}

// NewTicketService creates a new TicketService.
func NewTicketService(cfg *config.Config, clock clockwork.Clock) *TicketService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TicketService{cfg: cfg, clock: clock}
}

// Issue signs a ticket for question n of a test.
func (s *TicketService) Issue(testID uuid.UUID, n int) (string, error) {
	now := s.clock.Now()

	claims := TicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    ticketIssuer,
			Subject:   testID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TicketTTL)),
		},
		TestID:   testID,
		Question: n,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TicketSecret))
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// Validate parses a ticket and checks its signature and expiry.
func (s *TicketService) Validate(tokenStr string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &TicketClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.TicketSecret), nil
	},
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid || claims.TestID == uuid.Nil {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}
