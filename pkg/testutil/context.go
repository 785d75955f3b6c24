package testutil

import (
	"net/http"
	"time"

	id "domainreg/pkg/domain"
	"domainreg/pkg/requestcontext"
)

// AsRegistrar authenticates req as clientID, as the registrar auth
// middleware would.
func AsRegistrar(req *http.Request, clientID id.ClientID, superuser bool) *http.Request {
	ctx := requestcontext.WithClientID(req.Context(), clientID)
	ctx = requestcontext.WithSuperuser(ctx, superuser)
	return req.WithContext(ctx)
}

// At pins the request instant, as the request time middleware would.
func At(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
