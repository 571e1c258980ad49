package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

func idFromPath(r *http.Request, name string) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}

// segmentFromQuery reads the required ?segment= filter. There is no default
// segment; callers must say which business line they mean.
func segmentFromQuery(r *http.Request) (domain.Segment, *AppError) {
	seg := domain.Segment(r.URL.Query().Get("segment"))
	if !seg.IsValid() {
		return "", ErrInvalidSegment
	}
	return seg, nil
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseOptionalDate treats empty input as "now".
func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return parseDate(s)
}
