package roles

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/readease/readease/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const findQ = `(?s)^SELECT\s+id,\s*name\s+FROM\s+roles\s+WHERE\s+id\s*=\s*\$1\s*$`

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestFindByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(findQ).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "USER"))

	role, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, role.ID)
	assert.Equal(t, "USER", role.Name)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(findQ).WithArgs(9).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(findQ).WithArgs(1).WillReturnError(errors.New("db down"))

	_, err := repo.FindByID(context.Background(), 1)
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}
