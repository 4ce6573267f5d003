package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminLogin(t *testing.T) {
	a := newApp(t)

	res := a.call(http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": "ADMIN@storekeep.test", "password": adminPassword})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.NotEmpty(t, res.object(t)["token"])

	res = a.call(http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": adminEmail, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "invalid email or password", res.object(t)["error"])

	res = a.call(http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestRoutesRequireTheRightRole(t *testing.T) {
	a := newApp(t)
	_, ownerTok := a.owner()
	adminTok := a.adminToken()

	res := a.call(http.MethodGet, "/api/v1/stores", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = a.call(http.MethodGet, "/api/v1/stores", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = a.call(http.MethodGet, "/api/v1/stores", adminTok, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = a.call(http.MethodGet, "/api/v1/admin/owners", ownerTok, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = a.call(http.MethodGet, "/api/v1/admin/owners", adminTok, nil)
	assert.Equal(t, http.StatusOK, res.Status)
	var owners []map[string]any
	res.json(t, &owners)
	require.Len(t, owners, 1)
	assert.NotContains(t, owners[0], "password_hash")
}

func TestRegisterOwner_DuplicateEmail(t *testing.T) {
	a := newApp(t)
	tok := a.adminToken()
	body := map[string]string{"first_name": "A", "last_name": "B", "email": "dup@storekeep.test"}

	res := a.call(http.MethodPost, "/api/v1/admin/owners", tok, body)
	require.Equal(t, http.StatusCreated, res.Status)
	res = a.call(http.MethodPost, "/api/v1/admin/owners", tok, body)
	assert.Equal(t, http.StatusConflict, res.Status)

	res = a.call(http.MethodPost, "/api/v1/admin/owners", tok, map[string]string{"first_name": "A", "email": "x@storekeep.test"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "last_name is required", res.object(t)["error"])
}

func TestOwnerAccount(t *testing.T) {
	a := newApp(t)
	id, tok := a.owner()

	res := a.call(http.MethodGet, "/api/v1/owners/me", tok, nil)
	require.Equal(t, http.StatusOK, res.Status)
	me := res.object(t)
	assert.Equal(t, id, me["owner"].(map[string]any)["id"])
	assert.Empty(t, me["stores"])

	res = a.call(http.MethodPut, "/api/v1/owners/me/password", tok, map[string]string{"current_password": "wrong", "new_password": "N3w-Passw0rd"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = a.call(http.MethodPut, "/api/v1/admin/owners/"+id+"/reset-password", a.adminToken(), nil)
	require.Equal(t, http.StatusOK, res.Status)
	pw := res.object(t)["password"].(string)

	res = a.call(http.MethodPut, "/api/v1/owners/me/password", tok, map[string]string{"current_password": pw, "new_password": "N3w-Passw0rd"})
	assert.Equal(t, http.StatusOK, res.Status, string(res.Body))

	res = a.call(http.MethodPut, "/api/v1/owners/me/deactivate", tok, nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = a.call(http.MethodGet, "/api/v1/owners/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status, "token of a deactivated owner is refused")
}

func TestLoginFailureIsLogged(t *testing.T) {
	a := newApp(t)

	entries := captureLogs(t, func() {
		a.call(http.MethodPost, "/api/v1/owners/login", "", map[string]string{"email": "ghost@storekeep.test", "password": "whatever"})
	})
	e, ok := findLog(entries, "auth.owner.login.fail")
	require.True(t, ok, "%+v", entries)
	assert.Equal(t, "warning", e.Level)
	assert.Equal(t, "ghost@storekeep.test", e.Fields["email"])

	entries = captureLogs(t, func() { a.adminToken() })
	_, ok = findLog(entries, "auth.admin.login.success")
	assert.True(t, ok)
}

func TestOwnerUpdatesOwnProfile(t *testing.T) {
	a := newApp(t)
	id, tok := a.owner()

	res := a.call(http.MethodPut, "/api/v1/owners/me", tok, map[string]string{"first_name": "Grace"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	body := res.object(t)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "Grace", body["first_name"])
	assert.Equal(t, "Test", body["last_name"])

	res = a.call(http.MethodPut, "/api/v1/owners/me", tok, map[string]string{"last_name": ""})
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = a.call(http.MethodPut, "/api/v1/owners/me", a.adminToken(), map[string]string{"first_name": "X"})
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func TestAdminSelfManagement(t *testing.T) {
	a := newApp(t)
	root := a.adminToken()

	res := a.call(http.MethodPost, "/api/v1/admin/admins", root, map[string]string{"name": "Ops", "email": "ops@storekeep.test"})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	var created struct {
		Admin    struct{ ID string } `json:"admin"`
		Password string              `json:"password"`
	}
	res.json(t, &created)

	res = a.call(http.MethodGet, "/api/v1/admin/admins", root, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var admins []map[string]any
	res.json(t, &admins)
	assert.Len(t, admins, 2)
	assert.NotContains(t, admins[0], "password_hash")

	res = a.call(http.MethodPut, "/api/v1/admin/admins/"+created.Admin.ID, root, map[string]string{"name": "Operations"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, "Operations", res.object(t)["name"])

	res = a.call(http.MethodPut, "/api/v1/admin/admins/"+created.Admin.ID, root, map[string]string{"email": adminEmail})
	assert.Equal(t, http.StatusConflict, res.Status)

	login := a.call(http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": "ops@storekeep.test", "password": created.Password})
	require.Equal(t, http.StatusOK, login.Status)
	ops := login.object(t)["token"].(string)

	res = a.call(http.MethodPut, "/api/v1/admin/me/password", ops, map[string]string{"current_password": "wrong", "new_password": "N3w-Passw0rd"})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	res = a.call(http.MethodPut, "/api/v1/admin/me/password", ops, map[string]string{"current_password": created.Password, "new_password": "N3w-Passw0rd"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	login = a.call(http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": "ops@storekeep.test", "password": "N3w-Passw0rd"})
	assert.Equal(t, http.StatusOK, login.Status)

	res = a.call(http.MethodDelete, "/api/v1/admin/admins/"+created.Admin.ID, root, nil)
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	res = a.call(http.MethodGet, "/api/v1/admin/admins/"+created.Admin.ID, root, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	res = a.call(http.MethodGet, "/api/v1/admin/owners", ops, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status, "deleted admin's token is refused")
}

func TestAdminDelete_LastAdminConflicts(t *testing.T) {
	a := newApp(t)
	tok := a.adminToken()

	res := a.call(http.MethodGet, "/api/v1/admin/admins", tok, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var admins []map[string]any
	res.json(t, &admins)
	require.Len(t, admins, 1)

	res = a.call(http.MethodDelete, "/api/v1/admin/admins/"+admins[0]["id"].(string), tok, nil)
	assert.Equal(t, http.StatusConflict, res.Status)
	res = a.call(http.MethodDelete, "/api/v1/admin/admins/not-a-uuid", tok, nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)
}
