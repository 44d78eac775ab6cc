package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jafrulamin/Class-Connect/config"
	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/repository"
	"github.com/jafrulamin/Class-Connect/pkg/jwt"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) MarkVerified(_ context.Context, id string) error {
	if u, ok := m.users[id]; ok {
		u.EmailVerified = true
	}
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	err     error // 非 nil 时所有读操作返回该错误
}

func newMockCourseRepo(courses ...model.Course) *mockCourseRepo {
	m := &mockCourseRepo{courses: make(map[string]*model.Course)}
	for i := range courses {
		c := courses[i]
		m.courses[c.ID] = &c
	}
	return m
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Course
	for _, c := range m.courses {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListByIDs(_ context.Context, ids []string) ([]model.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) Upsert(_ context.Context, courses []model.Course, _ int) error {
	for i := range courses {
		c := courses[i]
		m.courses[c.ID] = &c
	}
	return nil
}

// ── Mock RateLimiter / TokenBlacklist ──

type mockLimiter struct {
	mu   sync.Mutex
	hits map[string]int
}

func newMockLimiter() *mockLimiter {
	return &mockLimiter{hits: make(map[string]int)}
}

func (m *mockLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[key]++
	return m.hits[key] <= limit, nil
}

func (m *mockLimiter) PeekRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[key] < limit, nil
}

func (m *mockLimiter) ResetRateLimit(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hits, key)
	return nil
}

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.tokens == nil {
		m.tokens = make(map[string]time.Duration)
	}
	m.tokens[jti] = ttl
	return nil
}

// ── 公共测试构件 ──

var errBackend = errors.New("backend unavailable")

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, BaseURL: "http://localhost:8080"},
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   7 * 24 * time.Hour,
			VerifyTokenTTL:    24 * time.Hour,
			MinPasswordLength: 6,
		},
		Institution: config.InstitutionConfig{RootDomain: "cuny.edu"},
		Storage:     config.StorageConfig{Backend: config.StorageLocal},
		RateLimit: config.RateLimitConfig{
			SignInFailures: 3,
			SignInWindow:   15 * time.Minute,
			ResendWindow:   time.Minute,
		},
	}
}

func newTestJWT(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(&cfg.Auth)
}

func newTestLogger() *zap.Logger { return zap.NewNop() }

func strPtr(s string) *string { return &s }

func newRepoWithCourses(courses ...model.Course) (*repository.Repository, *mockCourseRepo) {
	cr := newMockCourseRepo(courses...)
	return &repository.Repository{User: newMockUserRepo(), Course: cr}, cr
}
