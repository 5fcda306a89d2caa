package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpSignInSignOut(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Jane Doe", "email": "jane@example.com", "password": "secret", "confirmPassword": "secret",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "jane@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "jane@example.com", "password": "secret"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data authResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, "jane@example.com", body.Data.User.Email)

	var sess *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			sess = c
		}
	}
	require.NotNil(t, sess)

	// the cookie alone authenticates browser requests
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(sess)
	me := httptest.NewRecorder()
	env.h.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)

	rec = env.do(http.MethodPost, "/api/auth/signout", nil, nil)
	res := decodeResult(t, rec)
	assert.Equal(t, "/", res.RedirectTo)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			assert.Negative(t, c.MaxAge)
		}
	}
}

func TestUpdatePaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser("user")
	auth := http.Header{"Authorization": {env.bearer(t, u)}}

	rec := env.do(http.MethodPut, "/api/user/payment-method", map[string]string{"type": "CashOnDelivery"}, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/place-order", decodeResult(t, rec).RedirectTo)
	assert.Equal(t, "CashOnDelivery", string(env.users.users[u.ID].PaymentMethod))

	rec = env.do(http.MethodPut, "/api/user/payment-method", map[string]string{"type": "Barter"}, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
