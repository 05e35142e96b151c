package database

import (
	"log/slog"
	"time"

	"github.com/AnTengye/docsign/model"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB opens the record store and migrates every table the service owns.
// dbType is "mysql" or anything else for sqlite.
func InitDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		if dsn == "" {
			dsn = "docsign.db"
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(slog.Default()),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.Template{}, &model.SignatureField{}, &model.GeneratedDocument{}); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.AuthoritySignature{}, &model.AuthoritySignatureAudit{}); err != nil {
		return nil, err
	}
	return db, nil
}

// newGormLogger routes gorm's warnings and SQL errors through slog. Missing
// rows are an expected lookup outcome and are not logged.
func newGormLogger(l *slog.Logger) gormlogger.Interface {
	return gormlogger.New(slog.NewLogLogger(l.Handler(), slog.LevelWarn), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
