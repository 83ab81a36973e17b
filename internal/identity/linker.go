package identity

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"attendbot/internal/model"
)

var (
	// ErrNotFound means no roster row matches the registration code.
	ErrNotFound = errors.New("student not found in roster")
	// ErrUnlinked means the chat user has not registered yet.
	ErrUnlinked = errors.New("chat user is not linked to a student")
)

// Repository is the storage the linker needs.
type Repository interface {
	FindStudentByCode(ctx context.Context, className, code string) (*model.Student, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	UpsertLink(ctx context.Context, link model.Link) error
	GetLink(ctx context.Context, chatUserID string) (*model.Link, error)
}

// Linker maps chat identities to roster students of one class.
type Linker struct {
	repo      Repository
	className string
	logger    *zap.Logger
}

// NewLinker creates a linker scoped to className.
func NewLinker(repo Repository, className string, logger *zap.Logger) *Linker {
	return &Linker{repo: repo, className: className, logger: logger}
}

// Register binds chatUserID to the student with studentCode, replacing any
// previous binding of that chat user.
func (l *Linker) Register(ctx context.Context, chatUserID, studentCode string) (model.Student, error) {
	code := strings.TrimSpace(studentCode)
	if chatUserID == "" || code == "" {
		return model.Student{}, ErrNotFound
	}
	st, err := l.repo.FindStudentByCode(ctx, l.className, code)
	if err != nil {
		return model.Student{}, err
	}
	if st == nil {
		return model.Student{}, ErrNotFound
	}
	if err := l.repo.UpsertLink(ctx, model.Link{ChatUserID: chatUserID, StudentID: st.ID, Role: "student"}); err != nil {
		return model.Student{}, err
	}
	l.logger.Info("chat user registered",
		zap.String("line_user_id", chatUserID),
		zap.String("student_code", st.Code),
	)
	return *st, nil
}

// Resolve returns the student linked to chatUserID.
func (l *Linker) Resolve(ctx context.Context, chatUserID string) (model.Student, error) {
	link, err := l.repo.GetLink(ctx, chatUserID)
	if err != nil {
		return model.Student{}, err
	}
	if link == nil {
		return model.Student{}, ErrUnlinked
	}
	st, err := l.repo.GetStudent(ctx, link.StudentID)
	if err != nil {
		return model.Student{}, err
	}
	if st == nil {
		// link points at a removed roster row
		return model.Student{}, ErrUnlinked
	}
	return *st, nil
}
