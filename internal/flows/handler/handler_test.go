package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	domain "domainreg/internal/domain/models"
	"domainreg/internal/flows/handler/mocks"
	flows "domainreg/internal/flows/models"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/requestcontext"
	"domainreg/pkg/testutil"
)

var requestTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler
	actor   flows.Actor
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.actor = flows.Actor{ClientID: "TheRegistrar"}
	s.router = s.newRouter(s.actor.ClientID)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

// newRouter authenticates every request as clientID. An empty clientID
// leaves the request anonymous.
func (s *HandlerSuite) newRouter(clientID id.ClientID) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithTime(req.Context(), requestTime)
			if clientID != "" {
				ctx = requestcontext.WithClientID(ctx, clientID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(s.service, logger).Register(r)
	return r
}

func (s *HandlerSuite) liveDomain(name id.DomainName) domain.Domain {
	return domain.Domain{
		RepoID:                     id.NewRepoID(),
		Name:                       name,
		CreationClientID:           s.actor.ClientID,
		CurrentSponsorClientID:     s.actor.ClientID,
		CreationTime:               requestTime,
		LastEppUpdateTime:          requestTime,
		RegistrationExpirationTime: requestTime.AddDate(2, 0, 0),
		Statuses:                   domain.NewStatusSet(domain.OK),
		DeletionTime:               domain.NotDeleted(),
	}
}

func (s *HandlerSuite) result(d domain.Domain, t history.Type) flows.Result {
	return flows.Result{
		Domain:  d,
		History: history.NewEntry(t, requestTime, d.RepoID, d.Name, s.actor.ClientID, false),
	}
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(v))
}

func (s *HandlerSuite) TestCreate() {
	s.Run("creates the domain", func() {
		d := s.liveDomain("example.tld")
		s.service.EXPECT().Create(gomock.Any(), s.actor, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ flows.Actor, cmd flows.CreateCommand) (flows.Result, error) {
				s.Equal(id.DomainName("example.tld"), cmd.Name)
				s.Equal(2, cmd.PeriodYears)
				s.Equal([]string{"ns1.example.net"}, cmd.Nameservers)
				s.Require().NotNil(cmd.Fee)
				s.Equal("USD 26.00", cmd.Fee.Total.String())
				return s.result(d, history.TypeDomainCreate), nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains", map[string]any{
			"name":         "Example.TLD",
			"period_years": 2,
			"nameservers":  []string{"NS1.example.net"},
			"fee":          map[string]any{"currency": "USD", "amount": "26.00"},
		})
		rec := testutil.DoRequest(s.router, req)

		s.Require().Equal(http.StatusCreated, rec.Code)
		var resp CommandResponse
		s.decode(rec, &resp)
		s.Equal("example.tld", resp.Domain.Name)
		s.Equal(string(domain.StateActive), resp.Domain.State)
		s.Equal("TheRegistrar", resp.Domain.Sponsor)
		s.Nil(resp.Domain.DeletionTime)
		s.False(resp.ActionPending)
	})

	s.Run("defaults the period to one year", func() {
		s.service.EXPECT().Create(gomock.Any(), s.actor, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ flows.Actor, cmd flows.CreateCommand) (flows.Result, error) {
				s.Equal(1, cmd.PeriodYears)
				s.Nil(cmd.Fee)
				return s.result(s.liveDomain(cmd.Name), history.TypeDomainCreate), nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains", map[string]any{"name": "short.tld"})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("rejects an invalid name before calling the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains", map[string]any{"name": "-bad-.tld"})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects an unknown currency", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains", map[string]any{
			"name": "example.tld",
			"fee":  map[string]any{"currency": "XXX", "amount": "1"},
		})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects malformed JSON", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/domains", "{")
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestRequiresAuthenticatedRegistrar() {
	router := s.newRouter("")
	rec := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/domains/example.tld"))
	s.Equal(http.StatusUnauthorized, rec.Code)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains", map[string]any{"name": "example.tld"})
	rec = testutil.DoRequest(router, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestInfo() {
	d := s.liveDomain("example.tld")
	d.Nameservers = []string{"ns1.example.net"}
	s.service.EXPECT().Info(gomock.Any(), s.actor, id.DomainName("example.tld")).
		Return(flows.Info{Domain: d, State: domain.StateActive}, nil)

	rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/domains/EXAMPLE.tld"))

	s.Require().Equal(http.StatusOK, rec.Code)
	var resp DomainResponse
	s.decode(rec, &resp)
	s.Equal("example.tld", resp.Name)
	s.Equal([]string{"ns1.example.net"}, resp.Nameservers)
	s.Equal([]string{"ok"}, resp.Statuses)
	s.Equal(d.RegistrationExpirationTime, resp.ExpirationTime)
}

func (s *HandlerSuite) TestServiceErrorsMapToStatus() {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "domain not found"), http.StatusNotFound},
		{"conflict", dErrors.New(dErrors.CodeConflict, "domain is pending transfer"), http.StatusConflict},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "not the sponsor"), http.StatusForbidden},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "domain is locked"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().Info(gomock.Any(), s.actor, id.DomainName("example.tld")).Return(flows.Info{}, tc.err)
			rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/domains/example.tld"))
			s.Equal(tc.status, rec.Code)

			var body map[string]string
			s.decode(rec, &body)
			s.Equal(string(dErrors.CodeOf(tc.err)), body["error"])
		})
	}
}

func (s *HandlerSuite) TestRenew() {
	s.Run("passes the expiration date", func() {
		d := s.liveDomain("example.tld")
		s.service.EXPECT().Renew(gomock.Any(), s.actor, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ flows.Actor, cmd flows.RenewCommand) (flows.Result, error) {
				s.Equal(id.DomainName("example.tld"), cmd.Name)
				s.Equal(time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC), cmd.CurrentExpirationDate)
				s.Equal(3, cmd.PeriodYears)
				return s.result(d, history.TypeDomainRenew), nil
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains/example.tld/renew", map[string]any{
			"current_expiration_date": "2002-01-01",
			"period_years":            3,
		})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("rejects a malformed expiration date", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains/example.tld/renew", map[string]any{
			"current_expiration_date": "01/01/2002",
		})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestDelete() {
	s.Run("a deferred delete is accepted", func() {
		d := s.liveDomain("example.tld")
		d.Statuses = domain.NewStatusSet(domain.PendingDelete)
		d.DeletionTime = requestTime.AddDate(0, 0, 35)
		res := s.result(d, history.TypeDomainDelete)
		res.ActionPending = true
		s.service.EXPECT().Delete(gomock.Any(), s.actor, flows.DeleteCommand{Name: "example.tld"}).Return(res, nil)

		rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/domains/example.tld/delete"))

		s.Require().Equal(http.StatusAccepted, rec.Code)
		var resp CommandResponse
		s.decode(rec, &resp)
		s.True(resp.ActionPending)
		s.Equal(string(domain.StatePendingDelete), resp.Domain.State)
		s.Require().NotNil(resp.Domain.DeletionTime)
		s.Equal(d.DeletionTime, *resp.Domain.DeletionTime)
	})

	s.Run("passes the override", func() {
		d := s.liveDomain("example.tld")
		want := flows.DeleteCommand{
			Name:     "example.tld",
			Override: &flows.DeleteOverride{RedemptionGraceDays: 0, PendingDeleteDays: 3},
		}
		s.service.EXPECT().Delete(gomock.Any(), s.actor, want).Return(s.result(d, history.TypeDomainDelete), nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains/example.tld/delete", map[string]any{
			"override": map[string]any{"redemption_grace_days": 0, "pending_delete_days": 3},
		})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("rejects negative override days", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/domains/example.tld/delete", map[string]any{
			"override": map[string]any{"redemption_grace_days": -1},
		})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestRestoreWithoutBody() {
	d := s.liveDomain("example.tld")
	s.service.EXPECT().Restore(gomock.Any(), s.actor, flows.RestoreCommand{Name: "example.tld"}).
		Return(s.result(d, history.TypeDomainRestore), nil)

	rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/domains/example.tld/restore"))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestUpdate() {
	s.Run("parses statuses and hosts", func() {
		d := s.liveDomain("example.tld")
		s.service.EXPECT().Update(gomock.Any(), s.actor, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ flows.Actor, cmd flows.UpdateCommand) (flows.Result, error) {
				s.Equal([]domain.StatusValue{domain.ClientHold}, cmd.AddStatuses)
				s.Empty(cmd.RemoveStatuses)
				s.Equal([]string{"ns2.example.net"}, cmd.AddNameservers)
				s.Equal("transfer lock", cmd.Reason)
				return s.result(d, history.TypeDomainUpdate), nil
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/domains/example.tld", map[string]any{
			"add_statuses":    []string{"clientHold"},
			"add_nameservers": []string{"ns2.example.net"},
			"reason":          "transfer lock",
		})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("rejects an unknown status", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/domains/example.tld", map[string]any{
			"add_statuses": []string{"clientFrozen"},
		})
		rec := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestTransfer() {
	s.Run("request defaults to one year", func() {
		d := s.liveDomain("example.tld")
		s.service.EXPECT().TransferRequest(gomock.Any(), s.actor, flows.TransferRequestCommand{Name: "example.tld", PeriodYears: 1}).
			Return(s.result(d, history.TypeDomainTransferRequest), nil)

		rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/domains/example.tld/transfer"))
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("resolution routes reach their flow", func() {
		d := s.liveDomain("example.tld")
		resolved := s.result(d, history.TypeDomainTransferApprove)
		resolved.Transfer = &poll.TransferResponse{
			DomainName:      "example.tld",
			GainingClientID: "NewRegistrar",
			LosingClientID:  "TheRegistrar",
			TransferStatus:  string(domain.TransferClientApproved),
		}
		s.service.EXPECT().TransferApprove(gomock.Any(), s.actor, id.DomainName("example.tld")).Return(resolved, nil)
		s.service.EXPECT().TransferReject(gomock.Any(), s.actor, id.DomainName("example.tld")).Return(resolved, nil)
		s.service.EXPECT().TransferCancel(gomock.Any(), s.actor, id.DomainName("example.tld")).
			Return(flows.Result{}, dErrors.New(dErrors.CodeConflict, "no pending transfer"))

		rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/domains/example.tld/transfer/approve"))
		s.Require().Equal(http.StatusOK, rec.Code)
		var resp CommandResponse
		s.decode(rec, &resp)
		s.Require().NotNil(resp.Transfer)
		s.Equal("NewRegistrar", resp.Transfer.GainingClientID)

		rec = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/domains/example.tld/transfer/reject"))
		s.Equal(http.StatusOK, rec.Code)

		rec = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/domains/example.tld/transfer/cancel"))
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("query", func() {
		extended := time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)
		s.service.EXPECT().TransferQuery(gomock.Any(), s.actor, id.DomainName("example.tld")).Return(poll.TransferResponse{
			DomainName:                         "example.tld",
			GainingClientID:                    "NewRegistrar",
			LosingClientID:                     "TheRegistrar",
			TransferStatus:                     string(domain.TransferPending),
			TransferRequestTime:                requestTime,
			PendingTransferExpirationTime:      requestTime.AddDate(0, 0, 5),
			ExtendedRegistrationExpirationTime: &extended,
		}, nil)

		rec := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/domains/example.tld/transfer"))
		s.Require().Equal(http.StatusOK, rec.Code)
		var resp TransferResponse
		s.decode(rec, &resp)
		s.Equal(string(domain.TransferPending), resp.Status)
		s.Require().NotNil(resp.ExtendedExpirationTime)
		s.Equal(extended, *resp.ExtendedExpirationTime)
	})
}
