package detection

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"facetrack/internal/queue"
)

// MessageType tags detection events on the queue.
const MessageType = "detection"

// recentLimit bounds the display feed to the newest detections.
const recentLimit = 10

// Event is a transient record of a successful recognition, independent of
// the attendance record it may have produced.
type Event struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserType   string    `json:"userType"`
	Confidence int       `json:"confidence"`
	DetectedAt time.Time `json:"detectedAt"`
}

// Repository persists detection events in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one detection event.
func (r *Repository) Insert(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.DetectedAt.IsZero() {
		evt.DetectedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO face_detections (id, user_id, user_name, user_type, confidence, detected_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, evt.ID, evt.UserID, evt.UserName, evt.UserType, evt.Confidence, evt.DetectedAt)
	return err
}

// Recent returns up to the newest 10 detections, most recent first.
func (r *Repository) Recent(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, user_name, user_type, confidence, detected_at
		FROM face_detections
		ORDER BY detected_at DESC
		LIMIT $1
	`, recentLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.UserID, &evt.UserName, &evt.UserType, &evt.Confidence, &evt.DetectedAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

// Log publishes detection events to a queue so the write is fire-and-forget
// relative to the recognize response. The display read path tolerates the
// resulting eventual consistency.
type Log struct {
	q queue.Queue
}

// NewLog creates a queue-backed detection log.
func NewLog(q queue.Queue) *Log {
	return &Log{q: q}
}

// Append enqueues one event for the consumer to persist.
func (l *Log) Append(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.DetectedAt.IsZero() {
		evt.DetectedAt = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return l.q.Publish(ctx, queue.Message{Type: MessageType, Body: body})
}

// Inserter is the sink the consumer drains into, normally the Repository.
type Inserter interface {
	Insert(ctx context.Context, evt Event) error
}

// RunConsumer drains detection messages into the repository until ctx ends.
func RunConsumer(ctx context.Context, q queue.Queue, repo Inserter) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		if msg.Type != MessageType {
			continue
		}
		var evt Event
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("detection consumer: bad message: %v", err)
			continue
		}
		if err := repo.Insert(ctx, evt); err != nil {
			log.Printf("detection insert failed for user %s: %v", evt.UserID, err)
		}
	}
	return nil
}
