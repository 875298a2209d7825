package echoapi

import (
	"net/http"
	"testing"

	"github.com/trezcool/makazi/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	createUser(t, env.userRepo, "Admin", "admin", "admin@test.cd", "LeM0tDePasse", user.AdminRoles, "", true)
	createUser(t, env.userRepo, "Lazy", "lazybone", "lazy@test.cd", "LeM0tDePasse", user.StudentRoles, "", false)

	tests := []httpTest{
		{
			name:     "valid credentials",
			body:     []byte(`{"username": "admin", "password": "LeM0tDePasse"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "username is case-insensitive",
			body:     []byte(`{"username": "ADMIN", "password": "LeM0tDePasse"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "login by email",
			body:     []byte(`{"username": "admin@test.cd", "password": "LeM0tDePasse"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     []byte(`{"username": "admin", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "authentication failed"}`),
		},
		{
			name:     "unknown user",
			body:     []byte(`{"username": "ghost", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "authentication failed"}`),
		},
		{
			name:     "deactivated account",
			body:     []byte(`{"username": "lazybone", "password": "LeM0tDePasse"}`),
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error": "account deactivated"}`),
		},
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username": "this field is required", "password": "this field is required"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.server.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("login() code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.cd", "", user.AdminRoles, "", true)
	warden := createUser(t, env.userRepo, "Warden A", "wardena", "warden.a@test.cd", "", user.WardenRoles, "A", true)
	adminToken := getToken(t, admin)
	wardenToken := getToken(t, warden)

	tests := []httpTest{
		{
			name:     "anonymous is rejected",
			path:     "/v1/users",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "non-admin is rejected",
			path:     "/v1/users",
			token:    wardenToken,
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error": "permission denied"}`),
		},
		{
			name:     "admin lists all",
			path:     "/v1/users",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "filter by block",
			path:     "/v1/users?block=A",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, []user.User{warden}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_create(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, "", true)
	token := getToken(t, admin)

	t.Run("warden without block is rejected", func(t *testing.T) {
		body := []byte(`{
			"name": "Warden A", "username": "wardena", "email": "warden.a@test.cd",
			"password": "LeM0tDePasse", "password_confirm": "LeM0tDePasse",
			"roles": ["warden:"]
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", token, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"block": "a warden must be assigned a block"}`),
		}, rec)
	})

	t.Run("warden with block is created", func(t *testing.T) {
		body := []byte(`{
			"name": "Warden A", "username": "wardena", "email": "warden.a@test.cd",
			"password": "LeM0tDePasse", "password_confirm": "LeM0tDePasse",
			"roles": ["warden:"], "block": "A"
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", token, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create() code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
	})

	t.Run("second warden on the same block is rejected", func(t *testing.T) {
		body := []byte(`{
			"name": "Warden A2", "username": "wardena2", "email": "warden.a2@test.cd",
			"password": "LeM0tDePasse", "password_confirm": "LeM0tDePasse",
			"roles": ["warden:"], "block": "A"
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", token, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"block": "this block already has a warden"}`),
		}, rec)
	})

	t.Run("cannot grant a role above your own", func(t *testing.T) {
		body := []byte(`{
			"name": "Owner", "username": "theowner", "email": "owner@test.cd",
			"password": "LeM0tDePasse", "password_confirm": "LeM0tDePasse",
			"roles": ["admin:owner"]
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", token, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"roles": "not enough rights to set these roles"}`),
		}, rec)
	})
}

func Test_userApi_destroy(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.cd", "", user.AdminRoles, "", true)
	other := createUser(t, env.userRepo, "Other", "otherone", "other@test.cd", "", user.StudentRoles, "", true)
	token := getToken(t, admin)

	t.Run("cannot delete self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, token)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("destroy() code = %v; wantCode %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("deletes another user", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+other.ID, token)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("destroy() code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		if _, err := env.userSvc.GetByID(other.ID); err != user.ErrNotFound {
			t.Errorf("destroy() user still exists; err = %v", err)
		}
	})
}
