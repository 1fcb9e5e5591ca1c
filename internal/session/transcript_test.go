package session

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dangtuan21/hana-salon/internal/booking"
)

func TestTranscriptArchiveNilSafe(t *testing.T) {
	var archive *TranscriptArchive
	assert.NoError(t, archive.Archive(context.Background(), New("x")))

	n, err := archive.ArchivedCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Nil(t, NewTranscriptArchive(nil))
}

func TestTranscriptArchive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := New("sess-1")
	s.Booking.CustomerName = "Jane Doe"
	s.Booking.CustomerPhone = "5551234567"
	s.Booking.Status = booking.StatusConfirmed
	s.Record("user", "book me Friday at 3pm")
	s.Record("assistant", "You're all set for Friday at 3:00 PM.")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO conversation_archive").
		WithArgs(sqlmock.AnyArg(), "sess-1", "Jane Doe", "555-123-4567",
			true, 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM conversation_archive_messages").
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO conversation_archive_messages").
		WithArgs(sqlmock.AnyArg(), "sess-1", "user", "book me Friday at 3pm", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO conversation_archive_messages").
		WithArgs(sqlmock.AnyArg(), "sess-1", "assistant", "You're all set for Friday at 3:00 PM.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	archive := NewTranscriptArchive(db)
	require.NoError(t, archive.Archive(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranscriptArchiveRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO conversation_archive").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	archive := NewTranscriptArchive(db)
	err = archive.Archive(context.Background(), New("sess-2"))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchivedCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	archive := NewTranscriptArchive(db)
	n, err := archive.ArchivedCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
