package recognizer

import (
	"context"
	"log"

	"facetrack/internal/metrics"
)

// Source names which strategy produced a recognition result.
type Source string

const (
	SourceBackend   Source = "backend"
	SourceSimulator Source = "simulator"
)

// Recognizer is a single recognition strategy.
type Recognizer interface {
	Recognize(ctx context.Context, imageB64 string) (Result, error)
}

// recognizeFunc adapts the simulator, which ignores the frame.
type recognizeFunc func(ctx context.Context) (Result, error)

func (f recognizeFunc) Recognize(ctx context.Context, _ string) (Result, error) {
	return f(ctx)
}

// Gateway composes the backend client with the simulated fallback. Backend
// unavailability (transport failure, timeout, non-2xx) selects the fallback;
// the caller never observes it as an error.
type Gateway struct {
	primary  Recognizer
	fallback Recognizer
}

// NewGateway builds a gateway over the backend client and simulator.
func NewGateway(client *Client, sim *Simulator) *Gateway {
	return &Gateway{
		primary: client,
		fallback: recognizeFunc(func(ctx context.Context) (Result, error) {
			return sim.Recognize(ctx)
		}),
	}
}

// Recognize tries the backend and substitutes the simulator when it fails.
// The returned error is only ever a fallback (store-read) error.
func (g *Gateway) Recognize(ctx context.Context, imageB64 string) (Result, Source, error) {
	res, err := g.primary.Recognize(ctx, imageB64)
	if err == nil {
		metrics.RecognitionAttempts.WithLabelValues(string(SourceBackend), outcome(res)).Inc()
		return res, SourceBackend, nil
	}

	log.Printf("recognizer backend unavailable, using simulation: %v", err)
	res, ferr := g.fallback.Recognize(ctx, imageB64)
	if ferr != nil {
		return Result{}, SourceSimulator, ferr
	}
	metrics.RecognitionAttempts.WithLabelValues(string(SourceSimulator), outcome(res)).Inc()
	return res, SourceSimulator, nil
}

func outcome(res Result) string {
	if res.Recognized {
		return "recognized"
	}
	return "miss"
}
