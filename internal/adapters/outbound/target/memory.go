package target

import (
	"context"
	"sync"

	"github.com/adshift/adshift/internal/domain"
	"github.com/google/uuid"
)

// Created is a campaign accepted by a MemorySubmitter.
type Created struct {
	ID     string
	Record domain.CanonicalRecord
}

// MemorySubmitter keeps created campaigns in memory and assigns UUID ids.
type MemorySubmitter struct {
	platform string
	mu       sync.Mutex
	created  []Created
}

func NewMemorySubmitter(platform string) *MemorySubmitter {
	return &MemorySubmitter{platform: platform}
}

func (m *MemorySubmitter) CreateCampaign(ctx context.Context, record domain.CanonicalRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.SubmissionError{Platform: m.platform, Err: err}
	}
	id := m.platform + "_" + uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, Created{ID: id, Record: record})
	return id, nil
}

// Created returns the accepted campaigns in submission order.
func (m *MemorySubmitter) Created() []Created {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Created, len(m.created))
	copy(out, m.created)
	return out
}
