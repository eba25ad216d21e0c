package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordicdesk/helpdesk/internal/domain"
	"github.com/nordicdesk/helpdesk/internal/events"
	apperrors "github.com/nordicdesk/helpdesk/pkg/util"
)

type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments map[string]domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]domain.Comment)}
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	comment.ID = fmt.Sprintf("comment-%d", f.seq)
	comment.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	f.comments[comment.ID] = *comment
	return nil
}

func (f *fakeCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := comment
	return &clone, nil
}

func (f *fakeCommentRepo) Update(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[comment.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.comments[comment.ID] = *comment
	return nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Comment
	for _, comment := range f.comments {
		if comment.TicketID == ticketID {
			out = append(out, comment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func newCommentFixture(t *testing.T) (*CommentService, *fakeCommentRepo, *fakeTicketStore, *captureDispatcher, *domain.Ticket) {
	t.Helper()
	store := newFakeTicketStore()
	commentRepo := newFakeCommentRepo()
	dispatcher := &captureDispatcher{}

	ticketSvc := NewTicketService(TicketDependencies{TicketRepo: store, HistoryRepo: store})
	ticket := mustCreate(t, ticketSvc, endUser("u1"))

	svc := NewCommentService(CommentDependencies{
		CommentRepo: commentRepo,
		TicketRepo:  store,
		Dispatcher:  dispatcher,
	})
	return svc, commentRepo, store, dispatcher, ticket
}

func TestCommentService_Add_PublishesEventAndTouchesTicket(t *testing.T) {
	svc, _, store, dispatcher, ticket := newCommentFixture(t)
	creator := endUser("u1")

	before, err := store.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)

	comment, err := svc.Add(context.Background(), creator, ticket.ID, "  any update on this?  ")
	require.NoError(t, err)
	assert.Equal(t, "any update on this?", comment.Content)
	assert.Equal(t, creator.ID, comment.AuthorID)
	assert.Equal(t, creator.Name, comment.AuthorName)
	assert.Equal(t, creator.Role, comment.AuthorRole)

	published := dispatcher.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventNewComment, published[0].Type)
	assert.Equal(t, ticket.ID, published[0].TicketID)
	payload, ok := published[0].Payload.(events.NewCommentPayload)
	require.True(t, ok)
	assert.Equal(t, comment.ID, payload.Comment.ID)

	after, err := store.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt) || after.UpdatedAt.Equal(before.UpdatedAt))
}

func TestCommentService_Add_Validation(t *testing.T) {
	svc, _, _, _, ticket := newCommentFixture(t)

	_, err := svc.Add(context.Background(), endUser("u1"), ticket.ID, "   ")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, "please add comment content", domainErr.Message)
}

func TestCommentService_AccessRestrictedToCreatorAndAdmin(t *testing.T) {
	svc, _, _, _, ticket := newCommentFixture(t)

	_, err := svc.Add(context.Background(), supportUser("s1", domain.RoleFirstLine), ticket.ID, "hello")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
	assert.Equal(t, "not authorized to access comments for this ticket", domainErr.Message)

	_, err = svc.List(context.Background(), supportUser("s2", domain.RoleSecondLine), ticket.ID)
	require.Error(t, err)

	_, err = svc.Add(context.Background(), supportUser("a1", domain.RoleAdmin), ticket.ID, "hello")
	require.NoError(t, err)
}

func TestCommentService_List_AscendingOrder(t *testing.T) {
	svc, _, _, _, ticket := newCommentFixture(t)
	creator := endUser("u1")

	first, err := svc.Add(context.Background(), creator, ticket.ID, "first")
	require.NoError(t, err)
	second, err := svc.Add(context.Background(), creator, ticket.ID, "second")
	require.NoError(t, err)

	comments, err := svc.List(context.Background(), creator, ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)
}

func TestCommentService_ModifyGate(t *testing.T) {
	svc, _, _, _, ticket := newCommentFixture(t)
	creator := endUser("u1")

	comment, err := svc.Add(context.Background(), creator, ticket.ID, "typo here")
	require.NoError(t, err)

	t.Run("author may edit", func(t *testing.T) {
		updated, err := svc.Update(context.Background(), creator, comment.ID, "typo fixed")
		require.NoError(t, err)
		assert.Equal(t, "typo fixed", updated.Content)
	})

	t.Run("other users may not", func(t *testing.T) {
		_, err := svc.Update(context.Background(), supportUser("s2", domain.RoleSecondLine), comment.ID, "nope")
		require.Error(t, err)
		assert.Equal(t, "not authorized to modify this comment", apperrors.ToDomainError(err).Message)
	})

	t.Run("admin may delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(context.Background(), supportUser("a1", domain.RoleAdmin), comment.ID))
		_, err := svc.Update(context.Background(), creator, comment.ID, "gone")
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})
}

func TestCommentService_MissingTicket(t *testing.T) {
	svc, _, _, _, _ := newCommentFixture(t)

	_, err := svc.Add(context.Background(), endUser("u1"), "missing", "hello")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, "no ticket found with that id", domainErr.Message)
}
