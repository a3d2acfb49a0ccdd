package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

// newMockAccountRepository creates a GormAccountRepository with a mocked SQL connection
func newMockAccountRepository(t *testing.T) (*GormAccountRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormAccountRepository(gormDB), mock, mockDB
}

func TestGormAccountRepository_FindByIDForUser(t *testing.T) {
	t.Run("finds account scoped to user", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "user_id", "remote_user_id", "access_token", "nickname"}).
			AddRow(int64(3), int64(7), int64(123456), "APP_USR-token", "STORE-X")

		mock.ExpectQuery(`SELECT \* FROM "seller_accounts" WHERE id = \$1 AND user_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(int64(3), int64(7), 1).
			WillReturnRows(rows)

		account, err := repo.FindByIDForUser(context.Background(), 3, 7)

		require.NoError(t, err)
		assert.Equal(t, int64(3), account.ID)
		assert.Equal(t, int64(123456), account.RemoteUserID)
		assert.Equal(t, "STORE-X", account.Nickname)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrAccountNotFound for another user's account", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "seller_accounts" WHERE id = \$1 AND user_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(int64(3), int64(99), 1).
			WillReturnError(gorm.ErrRecordNotFound)

		account, err := repo.FindByIDForUser(context.Background(), 3, 99)

		assert.Nil(t, account)
		assert.ErrorIs(t, err, mirror.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAccountRepository_FindByUser(t *testing.T) {
	repo, mock, mockDB := newMockAccountRepository(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"id", "user_id", "nickname"}).
		AddRow(int64(3), int64(7), "STORE-X").
		AddRow(int64(4), int64(7), "STORE-Y")

	mock.ExpectQuery(`SELECT \* FROM "seller_accounts" WHERE user_id = \$1 ORDER BY created_at ASC`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	accounts, err := repo.FindByUser(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "STORE-X", accounts[0].Nickname)
	assert.Equal(t, "STORE-Y", accounts[1].Nickname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAccountRepository_UpdateCredentials(t *testing.T) {
	t.Run("persists rotated credential", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "seller_accounts" SET .+ WHERE id = \$\d+ AND user_id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateCredentials(context.Background(), &mirror.Account{
			ID:           3,
			UserID:       7,
			AccessToken:  "APP_USR-new",
			RefreshToken: "TG-new",
			TokenType:    "Bearer",
			ExpiresAt:    time.Now().Add(6 * time.Hour),
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrAccountNotFound when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockAccountRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "seller_accounts" SET .+ WHERE id = \$\d+ AND user_id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateCredentials(context.Background(), &mirror.Account{ID: 3, UserID: 99})

		assert.ErrorIs(t, err, mirror.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
