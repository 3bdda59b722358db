package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayyinandprojects/Movie-API/pkg/httputil"
)

func doRequest(t *testing.T, h http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", bearer(token))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (map[string]any, *httputil.ErrorResponse) {
	t.Helper()
	var resp struct {
		Data  map[string]any          `json:"data"`
		Error *httputil.ErrorResponse `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Data, resp.Error
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	api := newTestAPI(t)

	body := `{"username":"alice1","password":"Secr3t!","email":"alice@example.com","name":"Alice","birthday":"1990-04-01"}`
	rr := doRequest(t, api.handler, http.MethodPost, "/users", "", strings.NewReader(body))

	require.Equal(t, http.StatusCreated, rr.Code)
	data, _ := decodeEnvelope(t, rr)
	assert.Equal(t, "alice1", data["username"])
	assert.Equal(t, "1990-04-01", data["birthday"])
	assert.Equal(t, []any{}, data["favorite_movies"])
	assert.NotContains(t, data, "password_hash")

	stored, err := api.users.GetByUsername(t.Context(), "alice1")
	require.NoError(t, err)
	assert.NotEqual(t, "Secr3t!", stored.PasswordHash)
	assert.True(t, api.hasher.Verify("Secr3t!", stored.PasswordHash))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "user-alice", "alice", "Secr3t!")

	body := `{"username":"alice","password":"other","email":"a2@example.com","name":"Alice Two"}`
	rr := doRequest(t, api.handler, http.MethodPost, "/users", "", strings.NewReader(body))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	_, apiErr := decodeEnvelope(t, rr)
	require.NotNil(t, apiErr)
	assert.Equal(t, "DUPLICATE_USERNAME", apiErr.Code)
	assert.Equal(t, "alice already exists", apiErr.Message)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"short username", `{"username":"bob","password":"pw","email":"b@example.com","name":"Bob"}`, "username"},
		{"non alphanumeric username", `{"username":"bob_smith","password":"pw","email":"b@example.com","name":"Bob"}`, "username"},
		{"missing password", `{"username":"bobsmith","email":"b@example.com","name":"Bob"}`, "password"},
		{"bad email", `{"username":"bobsmith","password":"pw","email":"nope","name":"Bob"}`, "email"},
		{"missing name", `{"username":"bobsmith","password":"pw","email":"b@example.com"}`, "name"},
		{"bad birthday", `{"username":"bobsmith","password":"pw","email":"b@example.com","name":"Bob","birthday":"01/02/1990"}`, "birthday"},
		{"password over 72 bytes", `{"username":"bobsmith","password":"` + strings.Repeat("x", 73) + `","email":"b@example.com","name":"Bob"}`, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			rr := doRequest(t, api.handler, http.MethodPost, "/users", "", strings.NewReader(tt.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			_, apiErr := decodeEnvelope(t, rr)
			require.NotNil(t, apiErr)
			assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
			assert.Contains(t, apiErr.Fields, tt.wantField)
		})
	}
}

func TestRegister_RejectsNonJSONContentType(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("username=alice"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

// --- Guarded reads ---

func TestListUsers(t *testing.T) {
	api := newTestAPI(t)
	alice := api.seedUser(t, "user-alice", "alice", "Secr3t!")
	api.seedUser(t, "user-bobby", "bobby", "hunter22")

	rr := doRequest(t, api.handler, http.MethodGet, "/users", api.tokenFor(t, alice), nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "alice", resp.Data[0]["username"])
	assert.Equal(t, "bobby", resp.Data[1]["username"])
	assert.NotContains(t, rr.Body.String(), "password_hash")
}

func TestGetUser(t *testing.T) {
	api := newTestAPI(t)
	alice := api.seedUser(t, "user-alice", "alice", "Secr3t!")
	token := api.tokenFor(t, alice)

	t.Run("found", func(t *testing.T) {
		rr := doRequest(t, api.handler, http.MethodGet, "/users/alice", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		data, _ := decodeEnvelope(t, rr)
		assert.Equal(t, "user-alice", data["id"])
	})

	t.Run("not found", func(t *testing.T) {
		rr := doRequest(t, api.handler, http.MethodGet, "/users/nobody", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUserRoutes_RequireToken(t *testing.T) {
	api := newTestAPI(t)
	api.seedUser(t, "user-alice", "alice", "Secr3t!")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/alice"},
		{http.MethodPut, "/users/alice"},
		{http.MethodDelete, "/users/alice"},
		{http.MethodPost, "/users/alice/movies/movie-1"},
		{http.MethodDelete, "/users/alice/movies/movie-1"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := doRequest(t, api.handler, rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error":{"code":"UNAUTHENTICATED","message":"Unauthenticated"}}`, rr.Body.String())
		})
	}
}

// --- Update ---

func TestUpdateUser_Self(t *testing.T) {
	api := newTestAPI(t)
	alice := api.seedUser(t, "user-alice", "alice", "Secr3t!")
	token := api.tokenFor(t, alice)

	body := `{"email":"alice@movies.test","name":"Alice Liddell","password":"N3wSecret"}`
	rr := doRequest(t, api.handler, http.MethodPut, "/users/alice", token, strings.NewReader(body))

	require.Equal(t, http.StatusOK, rr.Code)
	data, _ := decodeEnvelope(t, rr)
	assert.Equal(t, "alice@movies.test", data["email"])
	assert.Equal(t, "Alice Liddell", data["name"])

	login := doLogin(t, api.handler, `{"username":"alice","password":"N3wSecret"}`)
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestUpdateUser_Rename(t *testing.T) {
	api := newTestAPI(t)
	alice := api.seedUser(t, "user-alice", "alice", "Secr3t!")
	api.seedUser(t, "user-bobby", "bobby", "hunter22")
	token := api.tokenFor(t, alice)

	t.Run("onto existing username", func(t *testing.T) {
		rr := doRequest(t, api.handler, http.MethodPut, "/users/alice", token, strings.NewReader(`{"username":"bobby"}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		_, apiErr := decodeEnvelope(t, rr)
		require.NotNil(t, apiErr)
		assert.Equal(t, "DUPLICATE_USERNAME", apiErr.Code)
	})

	t.Run("onto free username", func(t *testing.T) {
		rr := doRequest(t, api.handler, http.MethodPut, "/users/alice", token, strings.NewReader(`{"username":"alicia"}`))
		require.Equal(t, http.StatusOK, rr.Code)

		// The token names the id, so it keeps working after a rename.
		rr = doRequest(t, api.handler, http.MethodGet, "/users/alicia", token, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestUpdateUser_OtherUserForbidden(t *testing.T) {
	api := newTestAPI(t)
	alice := api.seedUser(t, "user-alice", "alice", "Secr3t!")
	api.seedUser(t, "user-bobby", "bobby", "hunter22")

	rr := doRequest(t, api.handler, http.MethodPut, "/users/bobby", api.tokenFor(t, alice), strings.NewReader(`{"name":"pwned"}`))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	bobby, err := api.users.GetByUsername(t.Context(), "bobby")
	require.NoError(t, err)
	assert.Equal(t, "bobby", bobby.Name)
}

func TestUpdateUser_Validation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.seedUser(t, "user-alice", "alice", "Secr3t!")

	rr := doRequest(t, api.handler, http.MethodPut, "/users/alice", api.tokenFor(t, alice), strings.NewReader(`{"email":"not-an-email"}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	_, apiErr := decodeEnvelope(t, rr)
	require.NotNil(t, apiErr)
	assert.Contains(t, apiErr.Fields, "email")
}

// --- Delete ---

func TestDeleteUser(t *testing.T) {
	api := newTestAPI(t)
	alice := api.seedUser(t, "user-alice", "alice", "Secr3t!")
	api.seedUser(t, "user-bobby", "bobby", "hunter22")
	token := api.tokenFor(t, alice)

	t.Run("someone else", func(t *testing.T) {
		rr := doRequest(t, api.handler, http.MethodDelete, "/users/bobby", token, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown", func(t *testing.T) {
		rr := doRequest(t, api.handler, http.MethodDelete, "/users/nobody", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("self", func(t *testing.T) {
		rr := doRequest(t, api.handler, http.MethodDelete, "/users/alice", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"alice was deleted."}`, rr.Body.String())
	})

	t.Run("token of deleted user", func(t *testing.T) {
		rr := doRequest(t, api.handler, http.MethodGet, "/users", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

// --- Favorites ---

func TestFavorites(t *testing.T) {
	api := newTestAPI(t)
	alice := api.seedUser(t, "user-alice", "alice", "Secr3t!")
	api.seedUser(t, "user-bobby", "bobby", "hunter22")
	token := api.tokenFor(t, alice)

	rr := doRequest(t, api.handler, http.MethodPost, "/users/alice/movies/movie-1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	data, _ := decodeEnvelope(t, rr)
	assert.Equal(t, []any{"movie-1"}, data["favorite_movies"])

	// Adding twice keeps a single entry.
	rr = doRequest(t, api.handler, http.MethodPost, "/users/alice/movies/movie-1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	data, _ = decodeEnvelope(t, rr)
	assert.Equal(t, []any{"movie-1"}, data["favorite_movies"])

	rr = doRequest(t, api.handler, http.MethodPost, "/users/alice/movies/no-such-movie", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, api.handler, http.MethodPost, "/users/bobby/movies/movie-1", token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, api.handler, http.MethodDelete, "/users/alice/movies/movie-1", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	data, _ = decodeEnvelope(t, rr)
	assert.Equal(t, []any{}, data["favorite_movies"])
}
