package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/AnTengye/docsign/pkg/database"
	"github.com/AnTengye/docsign/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// asUser stands in for AuthMiddleware.
func asUser(tenant string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("username", "tester")
		c.Set("tenant", tenant)
		c.Next()
	}
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

var _ service.ObjectStorage = (*memStorage)(nil)

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) UploadFile(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = data
	return nil
}

func (s *memStorage) DownloadFile(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (s *memStorage) DeleteFile(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, name)
	return nil
}

func (s *memStorage) GetPresignedURL(_ context.Context, name string) (string, error) {
	return fmt.Sprintf("https://files.test/%s?sig=1", name), nil
}
