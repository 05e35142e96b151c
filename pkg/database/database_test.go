package database

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/AnTengye/docsign/model"
	"gorm.io/gorm"
)

func TestInitDBSqliteMigrates(t *testing.T) {
	db, err := InitDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}

	for _, table := range []interface{}{
		&model.Template{},
		&model.SignatureField{},
		&model.GeneratedDocument{},
		&model.AuthoritySignature{},
		&model.AuthoritySignatureAudit{},
	} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("Expected table for %T to exist", table)
		}
	}
}

func TestInitDBLogsThroughSlogWithoutNotFoundNoise(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	db, err := InitDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}

	var doc model.GeneratedDocument
	err = db.Where("id = ?", "missing").First(&doc).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no log output for a missing row, got %q", buf.String())
	}

	var n int
	if err := db.Raw("SELECT count(*) FROM no_such_table").Scan(&n).Error; err == nil {
		t.Fatal("Expected an error querying a missing table")
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "no_such_table") {
		t.Errorf("Expected the SQL error in slog output, got %q", out)
	}
}

func TestInitDBRejectsDuplicateIdempotencyKey(t *testing.T) {
	db, err := InitDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	key := "retry-1"
	first := &model.GeneratedDocument{ID: "doc-1", Tenant: "acme", IdempotencyKey: &key}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("Create error: %v", err)
	}

	second := &model.GeneratedDocument{ID: "doc-2", Tenant: "acme", IdempotencyKey: &key}
	if err := db.Create(second).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("Expected ErrDuplicatedKey, got %v", err)
	}

	otherTenant := &model.GeneratedDocument{ID: "doc-3", Tenant: "globex", IdempotencyKey: &key}
	if err := db.Create(otherTenant).Error; err != nil {
		t.Errorf("Expected the same key under another tenant to be accepted, got %v", err)
	}

	for _, id := range []string{"doc-4", "doc-5"} {
		if err := db.Create(&model.GeneratedDocument{ID: id, Tenant: "acme"}).Error; err != nil {
			t.Errorf("Expected documents without a key to be accepted, got %v", err)
		}
	}
}
