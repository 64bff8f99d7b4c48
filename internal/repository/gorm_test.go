package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"hbnb/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormRepository_Get(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormStore(db).Users()
	ctx := context.Background()

	tests := []struct {
		name          string
		id            string
		mockBehavior  func()
		expectedFound bool
		expectedError bool
	}{
		{
			name: "Success",
			id:   "u-1",
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "email", "first_name"}).
					AddRow("u-1", "test@example.com", "Test")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
					WithArgs("u-1", 1).
					WillReturnRows(rows)
			},
			expectedFound: true,
		},
		{
			name: "Not Found",
			id:   "u-99",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
					WithArgs("u-99", 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
		},
		{
			name: "Database Error",
			id:   "u-1",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
					WithArgs("u-1", 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, found, err := repo.Get(ctx, tt.id)

			assert.Equal(t, tt.expectedFound, found)
			if tt.expectedError {
				assert.True(t, models.IsCode(err, models.CodeInternal))
			} else {
				assert.NoError(t, err)
			}
			if tt.expectedFound && assert.NotNil(t, user) {
				assert.Equal(t, "test@example.com", user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormRepository_FindByOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormStore(db).Reviews()

	rows := sqlmock.NewRows([]string{"id", "text", "rating", "user_id", "place_id"}).
		AddRow("r-1", "Great", 5, "u-1", "p-1").
		AddRow("r-2", "Fine", 3, "u-2", "p-1")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE "place_id" = $1 ORDER BY created_at, id`)).
		WithArgs("p-1").
		WillReturnRows(rows)

	reviews, err := repo.FindBy(context.Background(), Eq("place_id", "p-1"))
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, "u-2", reviews[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_FindByUnknownColumnIssuesNoQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormStore(db).Users()

	_, err := repo.FindBy(context.Background(), Eq("password; DROP TABLE users", "x"))
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormStore(db).Amenities()
	ctx := context.Background()

	t.Run("Removed", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "amenities" WHERE "amenities"."id" = $1`)).
			WithArgs("a-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		removed, err := repo.Delete(ctx, "a-1")
		require.NoError(t, err)
		assert.True(t, removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Absent", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "amenities" WHERE "amenities"."id" = $1`)).
			WithArgs("a-2").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		removed, err := repo.Delete(ctx, "a-2")
		require.NoError(t, err)
		assert.False(t, removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pg unique violation", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "pg other error", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: users.email"), want: true},
		{name: "gorm translated", err: gorm.ErrDuplicatedKey, want: true},
		{name: "other", err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	err := writeError(models.KindUser, &pgconn.PgError{Code: "23505"})
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.Equal(t, "Email already registered", err.Error())

	err = writeError(models.KindPlace, errors.New("disk full"))
	assert.True(t, models.IsCode(err, models.CodeInternal))

	validation := models.NewValidationError("Invalid latitude")
	assert.Same(t, validation, writeError(models.KindPlace, validation))
}
