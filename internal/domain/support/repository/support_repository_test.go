package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"postboard/internal/domain/support/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockDB 使用 postgres 方言，校验实际发出的 SQL
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestListFiltersByStatusNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSupportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "message", "status", "created_at", "updated_at"}).
		AddRow("b", "Bob", "bob@example.com", "second", "pending", now, now).
		AddRow("a", "Ada", "ada@example.com", "first", "pending", now.Add(-time.Minute), now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "support_messages" WHERE status = $1 ORDER BY created_at DESC, id DESC`)).
		WithArgs("pending").
		WillReturnRows(rows)

	msgs, err := repo.List(context.Background(), model.StatusPending)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSupportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "support_messages" SET "status"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), "missing", model.StatusRead)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSupportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "support_messages" SET "status"=$1`)).
		WithArgs(model.StatusResolved, sqlmock.AnyArg(), "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus(context.Background(), "m1", model.StatusResolved))
	assert.NoError(t, mock.ExpectationsWereMet())
}
