package revalidate_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramiya/aria/internal/platform/ctxutil"
	"github.com/soramiya/aria/internal/platform/sec"
	"github.com/soramiya/aria/internal/revalidate"
)

type fakePurger struct {
	purged []string
	err    error
}

func (f *fakePurger) Purge(_ context.Context, paths []string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.purged = append(f.purged, paths...)
	return len(paths), nil
}

func doRequest(t *testing.T, handler http.Handler, body string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if claims != nil {
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func adminClaims() *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "admin-1", Role: string(sec.RoleAdmin)}
}

/*
TestHandler_Revalidate_RequiresAdmin verifies the authorization gate: 401
without a token, 403 for a non-admin role, and no purge in either case.
*/
func TestHandler_Revalidate_RequiresAdmin(t *testing.T) {
	purger := &fakePurger{}
	handler := revalidate.NewHandler(purger, slog.New(slog.DiscardHandler)).Routes()

	anonymous := doRequest(t, handler, `{"paths":["/music"]}`, nil)
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)

	member := doRequest(t, handler, `{"paths":["/music"]}`,
		&sec.AuthClaims{UserID: "user-1", Role: string(sec.RoleMember)})
	assert.Equal(t, http.StatusForbidden, member.Code)

	assert.Empty(t, purger.purged)
}

/*
TestHandler_Revalidate_ValidatesPaths verifies the 400 responses for missing
and malformed path lists.
*/
func TestHandler_Revalidate_ValidatesPaths(t *testing.T) {
	purger := &fakePurger{}
	handler := revalidate.NewHandler(purger, slog.New(slog.DiscardHandler)).Routes()

	tests := []struct {
		name string
		body string
	}{
		{name: "no body fields", body: `{}`},
		{name: "empty array", body: `{"paths":[]}`},
		{name: "relative path", body: `{"paths":["music"]}`},
		{name: "not json", body: `paths=/music`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := doRequest(t, handler, tt.body, adminClaims())
			assert.Equal(t, http.StatusBadRequest, response.Code)
		})
	}
	assert.Empty(t, purger.purged)
}

/*
TestHandler_Revalidate_PurgesPaths verifies the success response.
*/
func TestHandler_Revalidate_PurgesPaths(t *testing.T) {
	purger := &fakePurger{}
	handler := revalidate.NewHandler(purger, slog.New(slog.DiscardHandler)).Routes()

	response := doRequest(t, handler, `{"paths":["/music","/games/stage-zero"]}`, adminClaims())

	require.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, []string{"/music", "/games/stage-zero"}, purger.purged)
	assert.Contains(t, response.Body.String(), "Revalidated 2 path(s)")
}

/*
TestHandler_Revalidate_BackendFailure verifies that a purge failure maps to a
500 without leaking the cause.
*/
func TestHandler_Revalidate_BackendFailure(t *testing.T) {
	purger := &fakePurger{err: errors.New("redis down")}
	handler := revalidate.NewHandler(purger, slog.New(slog.DiscardHandler)).Routes()

	response := doRequest(t, handler, `{"paths":["/music"]}`, adminClaims())
	assert.Equal(t, http.StatusInternalServerError, response.Code)
	assert.NotContains(t, response.Body.String(), "redis down")
}
