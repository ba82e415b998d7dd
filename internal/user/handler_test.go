package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory-go/internal/user/entity"
)

func newTestHandler(store RecordStore, ext ExternalSource) *Handler {
	return NewHandler(newTestService(store, ext), zap.NewNop().Sugar())
}

func TestHandlerListAll(t *testing.T) {
	ext := &stubExternal{
		getAll: func(ctx context.Context) ([]entity.User, error) {
			return []entity.User{{ID: "1", Username: "alice"}}, nil
		},
	}
	store := &stubStore{
		findAll: func(ctx context.Context) ([]entity.User, error) {
			return []entity.User{{ID: "1", Username: "carol"}}, nil
		},
	}
	h := newTestHandler(store, ext)

	rr := httptest.NewRecorder()
	h.ListAll(rr, httptest.NewRequest(http.MethodGet, "/user", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)
	require.Equal(t, "EXTERNAL", out[0]["type"])
	require.Equal(t, "INTERNAL", out[1]["type"])
	require.Equal(t, out[0]["id"], out[1]["id"])
}

func TestHandlerGetByIDNotFound(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubExternal{})

	req := httptest.NewRequest(http.MethodGet, "/user/99", nil)
	req.SetPathValue("id", "99")
	rr := httptest.NewRecorder()
	h.GetByID(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "user not found")
}

func TestHandlerFilterMissingUsername(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubExternal{})

	rr := httptest.NewRecorder()
	h.Filter(rr, httptest.NewRequest(http.MethodGet, "/user/filter", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "username query parameter is required")
}

func TestHandlerFilterReturnsTaggedRecord(t *testing.T) {
	ext := &stubExternal{
		getByUsername: func(ctx context.Context, username string) ([]entity.User, error) {
			return []entity.User{{ID: "1", Username: username}}, nil
		},
	}
	h := newTestHandler(&stubStore{}, ext)

	rr := httptest.NewRecorder()
	h.Filter(rr, httptest.NewRequest(http.MethodGet, "/user/filter?username=alice", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "alice", out["username"])
	require.Equal(t, "EXTERNAL", out["type"])
}

func TestHandlerSearchMissingUsername(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubExternal{})

	rr := httptest.NewRecorder()
	h.Search(rr, httptest.NewRequest(http.MethodGet, "/user/search", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerCreateIgnoresInputType(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubExternal{})

	body := `{"id":"x","name":"Dave","username":"dave","email":"dave@example.com","type":"EXTERNAL"}`
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/user", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "INTERNAL", out["type"])
	require.Equal(t, "x", out["id"])
}

func TestHandlerCreateRejectsBadPayload(t *testing.T) {
	h := newTestHandler(&stubStore{}, &stubExternal{})

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/user", strings.NewReader("{not json")))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid payload")
}

func TestHandlerUpdateUsesPathID(t *testing.T) {
	var persisted entity.User
	store := &stubStore{
		save: func(ctx context.Context, u entity.User) (*entity.User, error) {
			persisted = u
			saved := u
			return &saved, nil
		},
	}
	h := newTestHandler(store, &stubExternal{})

	req := httptest.NewRequest(http.MethodPut, "/user/abc", strings.NewReader(`{"id":"other","username":"dave"}`))
	req.SetPathValue("id", "abc")
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "abc", persisted.ID)
}
