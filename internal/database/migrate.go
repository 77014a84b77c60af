package database

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/classroomhq/auth-service/migrations"
)

// Migrate applies the embedded migrations, routing goose output through zap.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	goose.SetLogger(gooseZapLogger{s: logger.Sugar()})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

type gooseZapLogger struct{ s *zap.SugaredLogger }

func (l gooseZapLogger) Printf(format string, v ...interface{}) {
	l.s.Infof(format, v...)
}

func (l gooseZapLogger) Fatalf(format string, v ...interface{}) {
	l.s.Errorf(format, v...)
}
