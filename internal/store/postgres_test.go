package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &PGStore{DB: db}, mock
}

func TestPGStoreInsert(t *testing.T) {
	s, mock := newMockStore(t)
	record := json.RawMessage(`{"name":"Jane"}`)

	mock.ExpectExec("INSERT INTO candidates").
		WithArgs("Jane", "jane@example.com", "555", []byte(record)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Insert(context.Background(), Candidate{Name: "Jane", Email: " jane@example.com", Phone: "555", Record: record}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreInsertDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("(?s)INSERT INTO candidates.*ON CONFLICT").
		WithArgs("Jane", "jane@example.com", "", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Insert(context.Background(), Candidate{Name: "Jane", Email: "jane@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateCandidate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreInsertError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO candidates").WillReturnError(errors.New("connection reset"))

	err := s.Insert(context.Background(), Candidate{Name: "Jane", Email: "jane@example.com"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateCandidate))
}

func TestPGStoreList(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"name", "email", "phone", "json_data"}).
		AddRow("Jane", "jane@example.com", "555", []byte(`{"name":"Jane"}`)).
		AddRow("Bob", "bob@example.com", "", nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, email, phone, json_data")).
		WithArgs("jane").
		WillReturnRows(rows)

	got, err := s.List(context.Background(), " Jane ")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"name":"Jane"}`, string(got[0].Record))
	assert.Nil(t, got[1].Record)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreDelete(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM candidates").
		WithArgs("jane@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM candidates").
		WithArgs("ghost@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), "Jane@Example.com"))
	assert.ErrorIs(t, s.Delete(context.Background(), "ghost@example.com"), ErrCandidateNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	_, err := OpenPostgres(context.Background(), " ")
	assert.Error(t, err)
}
