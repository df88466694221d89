package attendance

import (
	"context"
	"errors"
	"log"
	"time"

	"facetrack/internal/detection"
	"facetrack/internal/identity"
	"facetrack/internal/metrics"
	"facetrack/internal/recognizer"
)

// Gateway is the recognition entry point the pipeline calls.
type Gateway interface {
	Recognize(ctx context.Context, imageB64 string) (recognizer.Result, recognizer.Source, error)
}

// Resolver maps a recognized external id to a stored identity.
type Resolver interface {
	Resolve(ctx context.Context, externalID string) (*identity.Identity, error)
}

// DetectionLog receives detection events; appends are fire-and-forget.
type DetectionLog interface {
	Append(ctx context.Context, evt detection.Event) error
}

// Recorder is the attendance-repo slice the pipeline writes through.
type Recorder interface {
	Insert(ctx context.Context, role identity.Role, rec Record) (Record, error)
}

// Trainer submits enrollment images to the recognition backend.
type Trainer interface {
	Train(ctx context.Context, userID string, images []string, userInfo map[string]any) error
}

// FaceFlagger flips the face-trained flag on an identity.
type FaceFlagger interface {
	SetFaceTrained(ctx context.Context, role identity.Role, externalID string, trained bool) error
}

// RecognizedUser is the identity summary returned to the capture client.
type RecognizedUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Dept string `json:"dept"`
}

// RecognizeResponse is the pipeline outcome for one captured frame.
type RecognizeResponse struct {
	Recognized bool            `json:"recognized"`
	Message    string          `json:"message,omitempty"`
	User       *RecognizedUser `json:"user,omitempty"`
	Confidence int             `json:"confidence,omitempty"`
	Status     string          `json:"status,omitempty"`
	Time       string          `json:"time,omitempty"`
}

// ErrTooFewImages rejects training requests without enough samples.
var ErrTooFewImages = errors.New("at least 2 training images required")

// Service orchestrates recognize → resolve → log → record.
type Service struct {
	gateway    Gateway
	resolver   Resolver
	detections DetectionLog
	records    Recorder
	trainer    Trainer
	flagger    FaceFlagger
	policy     Policy
}

// NewService wires the pipeline.
func NewService(gateway Gateway, resolver Resolver, detections DetectionLog, records Recorder,
	trainer Trainer, flagger FaceFlagger, policy Policy) *Service {
	return &Service{
		gateway:    gateway,
		resolver:   resolver,
		detections: detections,
		records:    records,
		trainer:    trainer,
		flagger:    flagger,
		policy:     policy,
	}
}

// Recognize runs the full pipeline for one captured frame. Backend
// unavailability never surfaces here; the gateway substitutes the simulator.
// A recognized id with no stored identity produces a not-recognized response
// and no writes at all.
func (s *Service) Recognize(ctx context.Context, imageB64 string, now time.Time) (RecognizeResponse, error) {
	result, _, err := s.gateway.Recognize(ctx, imageB64)
	if err != nil {
		return RecognizeResponse{}, err
	}
	if !result.Recognized {
		return RecognizeResponse{Recognized: false}, nil
	}

	ident, err := s.resolver.Resolve(ctx, result.UserID)
	if err != nil {
		return RecognizeResponse{}, err
	}
	if ident == nil {
		return RecognizeResponse{Recognized: false, Message: "User not found"}, nil
	}

	if err := s.detections.Append(ctx, detection.Event{
		UserID:     ident.ExternalID,
		UserName:   ident.Name,
		UserType:   string(ident.Role),
		Confidence: result.Confidence,
		DetectedAt: now,
	}); err != nil {
		// The detection feed is display-only; losing an entry is not fatal.
		log.Printf("detection append failed for %s: %v", ident.ExternalID, err)
	}

	rec, err := s.Record(ctx, *ident, now)
	if err != nil {
		return RecognizeResponse{}, err
	}

	return RecognizeResponse{
		Recognized: true,
		User: &RecognizedUser{
			ID:   ident.ExternalID,
			Name: ident.Name,
			Type: string(ident.Role),
			Dept: ident.Dept,
		},
		Confidence: result.Confidence,
		Status:     rec.Status,
		Time:       rec.LoginTime,
	}, nil
}

// Record appends one attendance record for the identity at the given local
// time. It never checks for an existing same-day record: repeated
// recognitions each produce a new row.
func (s *Service) Record(ctx context.Context, ident identity.Identity, now time.Time) (Record, error) {
	rec := Record{
		ExternalID: ident.ExternalID,
		Date:       now.Format(DateFormat),
		LoginTime:  now.Format(LoginTimeFormat),
		Status:     s.policy.Status(now),
	}
	rec, err := s.records.Insert(ctx, ident.Role, rec)
	if err != nil {
		return Record{}, err
	}
	metrics.AttendanceRecords.WithLabelValues(string(ident.Role), rec.Status).Inc()
	return rec, nil
}

// Train submits enrollment images for an identity and flips its face-trained
// flag. A backend failure degrades to simulation mode: the flag is still set
// so the UI flow completes, matching the capture client's expectations.
func (s *Service) Train(ctx context.Context, role identity.Role, externalID string, images []string, userInfo map[string]any) (simulated bool, err error) {
	if len(images) < 2 {
		return false, ErrTooFewImages
	}
	if err := s.trainer.Train(ctx, externalID, images, userInfo); err != nil {
		log.Printf("recognizer training unavailable for %s, using simulation: %v", externalID, err)
		simulated = true
	}
	if err := s.flagger.SetFaceTrained(ctx, role, externalID, true); err != nil {
		return simulated, err
	}
	return simulated, nil
}
