package postgres

import (
	"codecalm/internal/common"
	"codecalm/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func newDBWithMock(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		conn.Close()
	})
	return NewPostgresDBFromConn(conn), mock
}

var ts = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestCreateUser_Success(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectQuery(`INSERT INTO users \(email, password_hash, full_name, role\)`).
		WithArgs("ada@example.com", "hash", "Ada", "student").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "created_at", "updated_at"}).AddRow(1, true, ts, ts))

	u, err := pg.CreateUser(context.Background(), "ada@example.com", "hash", "Ada", "student")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.ID != 1 || !u.IsActive || u.Email != "ada@example.com" {
		t.Errorf("CreateUser() = %+v, want id 1, active, email set", u)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	_, err := pg.CreateUser(context.Background(), "ada@example.com", "hash", "Ada", "student")
	if !errors.Is(err, common.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectQuery(`SELECT id, email, password_hash, full_name, role, is_active, created_at, updated_at FROM users WHERE email = \$1`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := pg.GetUserByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestGetSessionByToken_Found(t *testing.T) {
	pg, mock := newDBWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "user_agent", "ip_address", "created_at", "expires_at", "revoked"}).
		AddRow(5, 1, "tok", "curl", "127.0.0.1", ts, ts.Add(time.Hour), true)
	mock.ExpectQuery(`FROM sessions WHERE token = \$1`).WithArgs("tok").WillReturnRows(rows)

	s, err := pg.GetSessionByToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetSessionByToken() error = %v", err)
	}
	if !s.Revoked || s.UserID != 1 {
		t.Errorf("GetSessionByToken() = %+v, want revoked session of user 1", s)
	}
	if s.IsValid(ts) {
		t.Error("revoked session IsValid() = true, want false")
	}
}

func TestRevokeSession(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectExec(`UPDATE sessions SET revoked = TRUE WHERE token = \$1`).
		WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sessions SET revoked = TRUE`).
		WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := pg.RevokeSession(context.Background(), "tok"); err != nil {
		t.Errorf("RevokeSession(tok) error = %v, want nil", err)
	}
	if err := pg.RevokeSession(context.Background(), "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("RevokeSession(missing) error = %v, want ErrNotFound", err)
	}
}

func expectAppend(mock sqlmock.Sqlmock, convID, userID, msgID int64, role, content string, created time.Time) {
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO messages \(conversation_id, role, content, model, tokens\) SELECT c.id`).
		WithArgs(convID, userID, role, content, "", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(msgID, created))
	mock.ExpectExec(`UPDATE conversations SET updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs(convID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestAppendMessage_SequentialAppendsListInCallOrder(t *testing.T) {
	pg, mock := newDBWithMock(t)
	ctx := context.Background()

	expectAppend(mock, 7, 1, 100, db.RoleUser, "first", ts)
	expectAppend(mock, 7, 1, 101, db.RoleUser, "second", ts)

	first, err := pg.AppendMessage(ctx, 1, 7, db.NewMessage{Role: db.RoleUser, Content: "first"})
	if err != nil {
		t.Fatalf("AppendMessage(first) error = %v", err)
	}
	second, err := pg.AppendMessage(ctx, 1, 7, db.NewMessage{Role: db.RoleUser, Content: "second"})
	if err != nil {
		t.Fatalf("AppendMessage(second) error = %v", err)
	}

	// identical timestamps must still come back in id order
	mock.ExpectQuery(`FROM messages WHERE conversation_id = \$1 AND deleted_at IS NULL ORDER BY created_at ASC, id ASC`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "model", "tokens", "created_at"}).
			AddRow(first.ID, 7, "user", "first", "", 0, ts).
			AddRow(second.ID, 7, "user", "second", "", 0, ts))

	msgs, err := pg.GetMessages(ctx, 7)
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Errorf("GetMessages() = %+v, want [first second]", msgs)
	}
}

func TestAppendMessage_RejectsDeletedOrForeignConversation(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(7), int64(2), "user", "hi", "", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectRollback()

	_, err := pg.AppendMessage(context.Background(), 2, 7, db.NewMessage{Role: db.RoleUser, Content: "hi"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("AppendMessage() error = %v, want ErrNotFound", err)
	}
}

func TestGetRecentMessages(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC LIMIT \$2 \) recent ORDER BY created_at ASC, id ASC`).
		WithArgs(int64(7), 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "model", "tokens", "created_at"}).
			AddRow(1, 7, "user", "q", "", 0, ts).
			AddRow(2, 7, "assistant", "a", "m", 12, ts))

	msgs, err := pg.GetRecentMessages(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("GetRecentMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[1].Tokens != 12 {
		t.Errorf("GetRecentMessages() = %+v", msgs)
	}
}

func TestSoftDeleteConversation_HidesButKeepsRows(t *testing.T) {
	pg, mock := newDBWithMock(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE conversations SET deleted_at = NOW\(\), updated_at = NOW\(\) WHERE id = \$1 AND user_id = \$2 AND deleted_at IS NULL`).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM conversations WHERE id = \$1 AND user_id = \$2 AND deleted_at IS NULL`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "assistant_type", "title", "created_at", "updated_at"}))

	if err := pg.SoftDeleteConversation(ctx, 1, 7); err != nil {
		t.Fatalf("SoftDeleteConversation() error = %v", err)
	}
	if _, err := pg.GetConversation(ctx, 1, 7); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetConversation() after delete error = %v, want ErrNotFound", err)
	}
}

func TestSoftDeleteConversation_AlreadyDeleted(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectExec(`UPDATE conversations SET deleted_at`).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := pg.SoftDeleteConversation(context.Background(), 1, 7); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("SoftDeleteConversation() error = %v, want ErrNotFound", err)
	}
}

func TestListConversations_FilterAndMessages(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectQuery(`FROM conversations c WHERE c.user_id = \$1 AND c.deleted_at IS NULL .* ORDER BY c.updated_at DESC, c.id DESC LIMIT \$3`).
		WithArgs(int64(1), "codegent", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "assistant_type", "title", "created_at", "updated_at", "count"}).
			AddRow(9, 1, "codegent", "newer", ts, ts.Add(time.Minute), 2).
			AddRow(8, 1, "codegent", "older", ts, ts, 0))
	mock.ExpectQuery(`FROM messages WHERE conversation_id = \$1`).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "model", "tokens", "created_at"}).
			AddRow(1, 9, "user", "q", "", 0, ts).
			AddRow(2, 9, "assistant", "a", "m", 3, ts))
	mock.ExpectQuery(`FROM messages WHERE conversation_id = \$1`).WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "model", "tokens", "created_at"}))

	convs, err := pg.ListConversations(context.Background(), 1, db.ListConversationsFilter{
		AssistantType:   "codegent",
		Limit:           10,
		IncludeMessages: true,
	})
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 2 || convs[0].Title != "newer" {
		t.Fatalf("ListConversations() = %+v, want newer first", convs)
	}
	if convs[0].MessageCount != 2 || len(convs[0].Messages) != 2 {
		t.Errorf("first conversation messages = %d/%d, want 2/2", convs[0].MessageCount, len(convs[0].Messages))
	}
}

func TestRecordTurn_NewConversation(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO conversations \(user_id, assistant_type, title\)`).
		WithArgs(int64(1), "codegent", "explain recursion").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, ts, ts))
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(42), int64(1), "user", "explain recursion", "", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, ts))
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(42), int64(1), "assistant", "Recursion is...", "openai/gpt-4-turbo", 42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(101, ts))
	mock.ExpectQuery(`INSERT INTO routing_logs`).
		WithArgs(int64(42), int64(1), int64(101), "gpt", "explanation", int64(120), 0.42, "Successfully used GPT", "explain recursion").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, ts))
	mock.ExpectExec(`UPDATE conversations SET updated_at`).WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := pg.RecordTurn(context.Background(), db.TurnRecord{
		UserID:        1,
		AssistantType: "codegent",
		Title:         "explain recursion",
		UserMessage:   db.NewMessage{Role: db.RoleUser, Content: "explain recursion"},
		Reply:         db.NewMessage{Role: db.RoleAssistant, Content: "Recursion is...", Model: "openai/gpt-4-turbo", Tokens: 42},
		Routing: db.RoutingLog{
			SelectedModel: "gpt",
			QueryType:     "explanation",
			LatencyMS:     120,
			CostEstimate:  0.42,
			Reasoning:     "Successfully used GPT",
			Query:         "explain recursion",
		},
	})
	if err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	if res.ConversationID != 42 || res.Reply.ID != 101 || res.RoutingLogID != 7 {
		t.Errorf("RecordTurn() = %+v", res)
	}
}

func TestRecordTurn_RollsBackOnFailure(t *testing.T) {
	pg, mock := newDBWithMock(t)
	convID := int64(42)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO messages`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, ts))
	mock.ExpectQuery(`INSERT INTO messages`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := pg.RecordTurn(context.Background(), db.TurnRecord{
		UserID:         1,
		ConversationID: &convID,
		UserMessage:    db.NewMessage{Role: db.RoleUser, Content: "hi"},
		Reply:          db.NewMessage{Role: db.RoleAssistant, Content: "hello"},
	})
	if err == nil {
		t.Fatal("RecordTurn() error = nil, want error")
	}
	if errors.Is(err, common.ErrNotFound) {
		t.Errorf("RecordTurn() error = %v, want a plain database error", err)
	}
}

func TestCreateRoutingLog_ForeignConversation(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectQuery(`INSERT INTO routing_logs`).
		WithArgs(int64(7), int64(2), nil, "claude", "coding", int64(0), 0.0, "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	_, err := pg.CreateRoutingLog(context.Background(), 2, db.RoutingLog{ConversationID: 7, SelectedModel: "claude", QueryType: "coding"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("CreateRoutingLog() error = %v, want ErrNotFound", err)
	}
}

func TestListRoutingLogs(t *testing.T) {
	pg, mock := newDBWithMock(t)
	userID := int64(1)

	mock.ExpectQuery(`FROM routing_logs rl JOIN conversations c .* LIMIT \$3`).
		WithArgs(userID, nil, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "message_id", "selected_model", "query_type", "latency_ms", "cost_estimate", "reasoning", "query_preview", "created_at", "tokens"}).
			AddRow(2, 7, 101, "gpt", "explanation", 120, 0.1, "ok", "explain recursion", ts, 42).
			AddRow(1, 7, nil, "claude", "coding", 80, 0, "manual", "", ts, 0))

	logs, err := pg.ListRoutingLogs(context.Background(), db.RoutingLogFilter{UserID: &userID, Limit: 50})
	if err != nil {
		t.Fatalf("ListRoutingLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("ListRoutingLogs() returned %d logs, want 2", len(logs))
	}
	if logs[0].Query != "explain recursion" {
		t.Errorf("first log Query = %q, want %q", logs[0].Query, "explain recursion")
	}
	if logs[0].MessageID == nil || *logs[0].MessageID != 101 || logs[0].Tokens != 42 {
		t.Errorf("first log = %+v, want message 101 with 42 tokens", logs[0])
	}
	if logs[1].MessageID != nil {
		t.Errorf("second log MessageID = %v, want nil", *logs[1].MessageID)
	}
}

func TestListRoutingLogs_AllRowsWithoutLimit(t *testing.T) {
	pg, mock := newDBWithMock(t)

	mock.ExpectQuery(`ORDER BY rl.created_at DESC, rl.id DESC$`).
		WithArgs(nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "message_id", "selected_model", "query_type", "latency_ms", "cost_estimate", "reasoning", "query_preview", "created_at", "tokens"}))

	logs, err := pg.ListRoutingLogs(context.Background(), db.RoutingLogFilter{})
	if err != nil {
		t.Fatalf("ListRoutingLogs() error = %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("ListRoutingLogs() = %v, want empty", logs)
	}
}
