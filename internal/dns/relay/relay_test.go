package relay

//go:generate mockgen -source=relay.go -destination=mocks/mocks.go -package=mocks Outbox,Publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	dns "domainreg/internal/dns/models"
	"domainreg/internal/dns/outbox"
	"domainreg/internal/dns/relay/mocks"
	id "domainreg/pkg/domain"
)

type RelaySuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	outbox    *mocks.MockOutbox
	publisher *mocks.MockPublisher
	relay     *Relay
	ctx       context.Context
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.outbox = mocks.NewMockOutbox(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	var err error
	s.relay, err = New(s.outbox, s.publisher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBatchSize(2),
		WithAttempts(2),
	)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *RelaySuite) refresh(n int64, name string) dns.Refresh {
	return dns.Refresh{ID: n, Domain: id.DomainName(name), Reason: dns.ReasonCreate, RequestedAt: time.Unix(n, 0).UTC()}
}

func (s *RelaySuite) TestNew() {
	_, err := New(nil, s.publisher)
	s.Error(err)
	_, err = New(s.outbox, nil)
	s.Error(err)
}

func (s *RelaySuite) TestDrainPublishesUntilEmpty() {
	first := []dns.Refresh{s.refresh(1, "a.tld"), s.refresh(2, "b.tld")}
	second := []dns.Refresh{s.refresh(3, "c.tld")}

	gomock.InOrder(
		s.outbox.EXPECT().Pending(gomock.Any(), 2).Return(first, nil),
		s.publisher.EXPECT().Publish(gomock.Any(), first).Return(nil),
		s.outbox.EXPECT().MarkPublished(gomock.Any(), []int64{1, 2}).Return(nil),
		s.outbox.EXPECT().Pending(gomock.Any(), 2).Return(second, nil),
		s.publisher.EXPECT().Publish(gomock.Any(), second).Return(nil),
		s.outbox.EXPECT().MarkPublished(gomock.Any(), []int64{3}).Return(nil),
	)

	s.Require().NoError(s.relay.Drain(s.ctx))
}

func (s *RelaySuite) TestDrainRetriesThenSucceeds() {
	batch := []dns.Refresh{s.refresh(7, "a.tld")}
	gomock.InOrder(
		s.outbox.EXPECT().Pending(gomock.Any(), 2).Return(batch, nil),
		s.publisher.EXPECT().Publish(gomock.Any(), batch).Return(errors.New("broker down")),
		s.publisher.EXPECT().Publish(gomock.Any(), batch).Return(nil),
		s.outbox.EXPECT().MarkPublished(gomock.Any(), []int64{7}).Return(nil),
	)

	s.Require().NoError(s.relay.Drain(s.ctx))
}

func (s *RelaySuite) TestDrainRecordsFailure() {
	batch := []dns.Refresh{s.refresh(9, "a.tld")}
	s.outbox.EXPECT().Pending(gomock.Any(), 2).Return(batch, nil)
	s.publisher.EXPECT().Publish(gomock.Any(), batch).Return(errors.New("broker down")).Times(2)
	s.outbox.EXPECT().MarkFailed(gomock.Any(), []int64{9}, gomock.Any()).Return(nil)

	err := s.relay.Drain(s.ctx)
	s.Require().Error(err)
	s.Contains(err.Error(), "broker down")
}

func (s *RelaySuite) TestRunWithMemoryOutbox() {
	box := outbox.NewInMemory()
	published := make(chan []dns.Refresh, 1)
	pub := publisherFunc(func(_ context.Context, batch []dns.Refresh) error {
		published <- batch
		return nil
	})
	r, err := New(box, pub, WithWake(box.Wake()), WithInterval(time.Hour))
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	s.Require().NoError(box.Enqueue(ctx, dns.Refresh{Domain: "example.tld", Reason: dns.ReasonDelete}))

	select {
	case batch := <-published:
		s.Len(batch, 1)
		s.Equal(dns.ReasonDelete, batch[0].Reason)
	case <-time.After(5 * time.Second):
		s.Fail("relay did not publish after wake-up")
	}
	cancel()
	s.NoError(<-done)

	pending, err := box.Pending(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

type publisherFunc func(context.Context, []dns.Refresh) error

func (f publisherFunc) Publish(ctx context.Context, batch []dns.Refresh) error { return f(ctx, batch) }
