package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"

	"dreambot/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSessionRepo_Load(t *testing.T) {
	tests := []struct {
		name          string
		userID        int64
		mockRows      *sqlmock.Rows
		mockError     error
		expectedNil   bool
		expectedState domain.State
		expectedError bool
	}{
		{
			name:   "existing session",
			userID: 123,
			mockRows: sqlmock.NewRows([]string{"data"}).
				AddRow([]byte(`{"state":"ask_email","mode":"text","name":"Анна"}`)),
			expectedState: domain.StateAskEmail,
		},
		{
			name:        "missing session returns nil",
			userID:      456,
			mockError:   sql.ErrNoRows,
			expectedNil: true,
		},
		{
			name:   "unknown state normalized to menu",
			userID: 789,
			mockRows: sqlmock.NewRows([]string{"data"}).
				AddRow([]byte(`{"state":"legacy_state","mode":"text"}`)),
			expectedState: domain.StateMenu,
		},
		{
			name:          "database error",
			userID:        321,
			mockError:     fmt.Errorf("connection lost"),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewSessionRepo(db)

			query := "SELECT data FROM sessions WHERE user_id = \\$1"

			if tt.mockError != nil {
				mock.ExpectQuery(query).WithArgs(tt.userID).WillReturnError(tt.mockError)
			} else {
				mock.ExpectQuery(query).WithArgs(tt.userID).WillReturnRows(tt.mockRows)
			}

			session, err := repo.Load(tt.userID)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.expectedNil {
					assert.Nil(t, session)
				} else {
					assert.NotNil(t, session)
					assert.Equal(t, tt.expectedState, session.State)
				}
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSessionRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepo(db)

	session := &domain.Session{
		State: domain.StateMenu,
		Mode:  domain.ModeVoice,
		Token: "tok-1",
	}
	data, err := json.Marshal(session)
	assert.NoError(t, err)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(int64(123), data).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(123, session)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_SaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewSessionRepo(db)

	mock.ExpectExec("INSERT INTO sessions").
		WillReturnError(fmt.Errorf("disk full"))

	err = repo.Save(123, &domain.Session{State: domain.StateMenu, Mode: domain.ModeText})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
