package auth

import (
	"golang.org/x/time/rate"
)

// Throttle limits how quickly passwords can be guessed.
type Throttle struct {
	limiter *rate.Limiter
}

func NewThrottle(perSecond float64, burst int) *Throttle {
	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (t *Throttle) Allow() bool {
	if t == nil {
		return true
	}
	return t.limiter.Allow()
}
