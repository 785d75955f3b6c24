package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	poll "domainreg/internal/poll/models"
	"domainreg/internal/poll/service/mocks"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/platform/sentinel"
)

type QueueSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	store *mocks.MockStore
	queue *Queue
	ctx   context.Context
	now   time.Time
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	var err error
	s.queue, err = New(s.store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.ctx = context.Background()
	s.now = time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)
}

// expectUpdate runs fn against msg the way a store would and returns what
// the callback left behind.
func (s *QueueSuite) expectUpdate(msg poll.Message) (*poll.Message, *bool) {
	var kept bool
	out := msg
	s.store.EXPECT().UpdatePollMessage(gomock.Any(), msg.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.PollMessageID, fn func(*poll.Message) (bool, error)) error {
			keep, err := fn(&out)
			kept = keep
			return err
		})
	return &out, &kept
}

func (s *QueueSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *QueueSuite) TestRequest() {
	s.Run("empty queue", func() {
		s.store.EXPECT().Deliverable(gomock.Any(), id.ClientID("TheRegistrar"), s.now).Return(nil, nil)

		head, err := s.queue.Request(s.ctx, "TheRegistrar", s.now)
		s.Require().NoError(err)
		s.Nil(head.Message)
		s.Zero(head.Count)
	})

	s.Run("returns oldest with count", func() {
		first := poll.NewOneTime("TheRegistrar", s.now.AddDate(0, 0, -2), poll.MsgDeleted, id.NewRepoID(), "a.tld", id.NewHistoryEntryID())
		second := poll.NewOneTime("TheRegistrar", s.now.AddDate(0, 0, -1), poll.MsgDeleted, id.NewRepoID(), "b.tld", id.NewHistoryEntryID())
		s.store.EXPECT().Deliverable(gomock.Any(), id.ClientID("TheRegistrar"), s.now).Return([]poll.Message{first, second}, nil)

		head, err := s.queue.Request(s.ctx, "TheRegistrar", s.now)
		s.Require().NoError(err)
		s.Require().NotNil(head.Message)
		s.Equal(first.ID, head.Message.ID)
		s.Equal(2, head.Count)
	})

	s.Run("store failure is internal", func() {
		s.store.EXPECT().Deliverable(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

		_, err := s.queue.Request(s.ctx, "TheRegistrar", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *QueueSuite) TestAckOneTimeRemovesMessage() {
	msg := poll.NewOneTime("TheRegistrar", s.now.AddDate(0, 0, -1), poll.MsgDeleted, id.NewRepoID(), "a.tld", id.NewHistoryEntryID())
	_, kept := s.expectUpdate(msg)
	s.store.EXPECT().Deliverable(gomock.Any(), id.ClientID("TheRegistrar"), s.now).Return(nil, nil)

	remaining, err := s.queue.Ack(s.ctx, "TheRegistrar", msg.ID, s.now)
	s.Require().NoError(err)
	s.False(*kept)
	s.Zero(remaining)
}

func (s *QueueSuite) TestAckAutorenewAdvancesOneYear() {
	msg := poll.NewAutorenew("TheRegistrar", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), id.NewRepoID(), "a.tld", id.NewHistoryEntryID())
	out, kept := s.expectUpdate(msg)
	s.store.EXPECT().Deliverable(gomock.Any(), id.ClientID("TheRegistrar"), s.now).Return(nil, nil)

	_, err := s.queue.Ack(s.ctx, "TheRegistrar", msg.ID, s.now)
	s.Require().NoError(err)
	s.True(*kept)
	s.Equal(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), out.EventTime)
}

func (s *QueueSuite) TestAckRejections() {
	s.Run("another registrar's message", func() {
		msg := poll.NewOneTime("NewRegistrar", s.now.AddDate(0, 0, -1), poll.MsgDeleted, id.NewRepoID(), "a.tld", id.NewHistoryEntryID())
		s.expectUpdate(msg)

		_, err := s.queue.Ack(s.ctx, "TheRegistrar", msg.ID, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("not yet deliverable", func() {
		msg := poll.NewOneTime("TheRegistrar", s.now.AddDate(0, 0, 1), poll.MsgDeleted, id.NewRepoID(), "a.tld", id.NewHistoryEntryID())
		s.expectUpdate(msg)

		_, err := s.queue.Ack(s.ctx, "TheRegistrar", msg.ID, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("domain locked by a command", func() {
		msgID := id.NewPollMessageID()
		s.store.EXPECT().UpdatePollMessage(gomock.Any(), msgID, gomock.Any()).Return(sentinel.ErrUnavailable)

		_, err := s.queue.Ack(s.ctx, "TheRegistrar", msgID, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("unknown message", func() {
		msgID := id.NewPollMessageID()
		s.store.EXPECT().UpdatePollMessage(gomock.Any(), msgID, gomock.Any()).Return(sentinel.ErrNotFound)

		_, err := s.queue.Ack(s.ctx, "TheRegistrar", msgID, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
