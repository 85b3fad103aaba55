package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
)

// --- Mock DataSource / DataSession ---

type mockSession struct {
	tagsForUserFn func(ctx context.Context, userID string) ([]string, error)
	queryFn       func(ctx context.Context, tags []string, region string, excludeIDs []string) ([]domain.SentimentRecord, error)
	popularFn     func(ctx context.Context, region string, excludeIDs []string, limit int) ([]domain.PopularSpot, error)
	getByIDsFn    func(ctx context.Context, ids []string) ([]domain.Spot, error)

	mu       sync.Mutex
	released int
}

func (m *mockSession) Release() {
	m.mu.Lock()
	m.released++
	m.mu.Unlock()
}

func (m *mockSession) releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *mockSession) TagsForUser(ctx context.Context, userID string) ([]string, error) {
	if m.tagsForUserFn != nil {
		return m.tagsForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSession) QueryByTagsAndRegion(ctx context.Context, tags []string, region string, excludeIDs []string) ([]domain.SentimentRecord, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, tags, region, excludeIDs)
	}
	return nil, nil
}

func (m *mockSession) PopularInRegion(ctx context.Context, region string, excludeIDs []string, limit int) ([]domain.PopularSpot, error) {
	if m.popularFn != nil {
		return m.popularFn(ctx, region, excludeIDs, limit)
	}
	return nil, nil
}

func (m *mockSession) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	spots, err := m.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(spots) == 0 {
		return nil, domain.ErrSpotNotFound
	}
	return &spots[0], nil
}

func (m *mockSession) GetByIDs(ctx context.Context, ids []string) ([]domain.Spot, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

type mockSource struct {
	sess     *mockSession
	err      error
	mu       sync.Mutex
	acquired int
}

func (m *mockSource) Acquire(ctx context.Context) (ports.DataSession, error) {
	m.mu.Lock()
	m.acquired++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.sess, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, ports.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []*domain.CourseEvent
	err    error
}

func (m *mockPublisher) PublishCourseServed(ctx context.Context, event *domain.CourseEvent) error {
	m.events = append(m.events, event)
	return m.err
}

// --- Fixtures ---

var seoulSpots = map[string]domain.Spot{
	"SPOT1": {ID: "SPOT1", Name: "경복궁", Address: "서울 종로구", Location: domain.GeoPoint{Lat: 37.5796, Lng: 126.9770}},
	"SPOT2": {ID: "SPOT2", Name: "서울숲", Address: "서울 성동구", Location: domain.GeoPoint{Lat: 37.5444, Lng: 127.0374}},
	"SPOT3": {ID: "SPOT3", Name: "N서울타워", Address: "서울 용산구", Location: domain.GeoPoint{Lat: 37.5512, Lng: 126.9882}},
	"SPOT4": {ID: "SPOT4", Name: "국립중앙박물관", Address: "서울 용산구", Location: domain.GeoPoint{Lat: 37.5239, Lng: 126.9803}},
	"SPOT5": {ID: "SPOT5", Name: "롯데월드", Address: "서울 송파구", Location: domain.GeoPoint{Lat: 37.5111, Lng: 127.0982}},
}

func lookupSpots(ctx context.Context, ids []string) ([]domain.Spot, error) {
	var out []domain.Spot
	for _, id := range ids {
		if sp, ok := seoulSpots[id]; ok {
			out = append(out, sp)
		}
	}
	return out, nil
}

func crawled(id string, p domain.Polarity, m float64) domain.SentimentRecord {
	return domain.SentimentRecord{SpotID: id, Source: domain.SourceCrawled, Polarity: p, Magnitude: m}
}

func user(id string, p domain.Polarity, rating float64) domain.SentimentRecord {
	return domain.SentimentRecord{SpotID: id, Source: domain.SourceUser, Polarity: p, Magnitude: rating}
}
