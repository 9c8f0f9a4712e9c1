// Package robloxtest é um fake em memória da API web da Roblox usada pelo
// RobloxClient: usuário autenticado, token CSRF, cargos de grupo e troca de cargo.
//
// Serve aos testes (via httptest.NewServer(api.Handler())) e ao binário
// cmd/roblox-fake para validação manual do promoter.
package robloxtest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"group-promoter/promotion/domain"

	"github.com/go-chi/chi/v5"
)

const csrfHeader = "X-CSRF-TOKEN"

type API struct {
	mu sync.Mutex

	cookie string
	token  string
	user   domain.Identity

	roles   map[int64][]domain.Role
	members map[int64]map[int64]int64 // grupo -> usuário -> roleID

	requests    int
	roleChanges int
	userParams  []string
}

func New(cookie, csrfToken string, user domain.Identity) *API {
	return &API{
		cookie:  cookie,
		token:   csrfToken,
		user:    user,
		roles:   make(map[int64][]domain.Role),
		members: make(map[int64]map[int64]int64),
	}
}

func (a *API) AddGroup(group int64, roles ...domain.Role) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roles[group] = append([]domain.Role(nil), roles...)
	if a.members[group] == nil {
		a.members[group] = make(map[int64]int64)
	}
}

func (a *API) AddMember(group, user, roleID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.members[group] == nil {
		a.members[group] = make(map[int64]int64)
	}
	a.members[group][user] = roleID
}

// RotateToken troca o token CSRF esperado, como a Roblox faz quando ele expira.
func (a *API) RotateToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) RoleOf(group, user int64) (domain.Role, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	roleID, ok := a.members[group][user]
	if !ok {
		return domain.Role{}, false
	}
	return a.findRole(group, roleID)
}

// Requests conta todas as chamadas recebidas.
func (a *API) Requests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

func (a *API) RoleChanges() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.roleChanges
}

// UserParams devolve o parâmetro {user} já decodificado de cada consulta de cargos.
func (a *API) UserParams() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.userParams...)
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(a.count)
	r.Get("/v1/users/authenticated", a.authenticated)
	r.Post("/v2/logout", a.logout)
	r.Get("/v2/users/{user}/groups/roles", a.userRoles)
	r.Get("/v1/groups/{group}/roles", a.groupRoles)
	r.Patch("/v1/groups/{group}/users/{user}", a.setRole)
	return r
}

func (a *API) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests++
		a.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (a *API) authenticated(w http.ResponseWriter, r *http.Request) {
	if !a.authorized(r) {
		writeErr(w, http.StatusUnauthorized, 0, "Authorization has been denied for this request.")
		return
	}
	a.mu.Lock()
	user := a.user
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if !a.authorized(r) {
		writeErr(w, http.StatusUnauthorized, 0, "Authorization has been denied for this request.")
		return
	}
	if !a.checkToken(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) userRoles(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "user")
	a.mu.Lock()
	a.userParams = append(a.userParams, param)
	a.mu.Unlock()

	user, err := strconv.ParseInt(param, 10, 64)
	if err != nil || user <= 0 {
		writeErr(w, http.StatusBadRequest, 3, "The user is invalid or does not exist.")
		return
	}

	type membership struct {
		Group struct {
			ID int64 `json:"id"`
		} `json:"group"`
		Role domain.Role `json:"role"`
	}
	out := struct {
		Data []membership `json:"data"`
	}{Data: []membership{}}

	a.mu.Lock()
	for group, users := range a.members {
		roleID, ok := users[user]
		if !ok {
			continue
		}
		role, _ := a.findRole(group, roleID)
		m := membership{Role: role}
		m.Group.ID = group
		out.Data = append(out.Data, m)
	}
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (a *API) groupRoles(w http.ResponseWriter, r *http.Request) {
	group, ok := a.lookupGroup(chi.URLParam(r, "group"))
	if !ok {
		writeErr(w, http.StatusBadRequest, 1, "Group is invalid or does not exist.")
		return
	}
	a.mu.Lock()
	roles := append([]domain.Role(nil), a.roles[group]...)
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"groupId": group, "roles": roles})
}

func (a *API) setRole(w http.ResponseWriter, r *http.Request) {
	if !a.authorized(r) {
		writeErr(w, http.StatusUnauthorized, 0, "Authorization has been denied for this request.")
		return
	}
	if !a.checkToken(w, r) {
		return
	}
	group, ok := a.lookupGroup(chi.URLParam(r, "group"))
	if !ok {
		writeErr(w, http.StatusBadRequest, 1, "Group is invalid or does not exist.")
		return
	}
	user, err := strconv.ParseInt(chi.URLParam(r, "user"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, 3, "The user is invalid or does not exist.")
		return
	}
	var body struct {
		RoleID int64 `json:"roleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, 2, "The roleset is invalid or does not exist.")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, member := a.members[group][user]; !member {
		writeErr(w, http.StatusBadRequest, 3, "The user is invalid or does not exist.")
		return
	}
	if _, exists := a.findRole(group, body.RoleID); !exists {
		writeErr(w, http.StatusBadRequest, 2, "The roleset is invalid or does not exist.")
		return
	}
	a.members[group][user] = body.RoleID
	a.roleChanges++
	writeJSON(w, http.StatusOK, struct{}{})
}

func (a *API) authorized(r *http.Request) bool {
	c, err := r.Cookie(".ROBLOSECURITY")
	if err != nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return c.Value != "" && c.Value == a.cookie
}

// checkToken responde 403 com o token atual quando o header não confere.
func (a *API) checkToken(w http.ResponseWriter, r *http.Request) bool {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()
	if r.Header.Get(csrfHeader) == token {
		return true
	}
	w.Header().Set(csrfHeader, token)
	writeErr(w, http.StatusForbidden, 0, "Token Validation Failed")
	return false
}

func (a *API) lookupGroup(raw string) (int64, bool) {
	group, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.roles[group]
	return group, ok
}

// findRole exige a.mu travado.
func (a *API) findRole(group, roleID int64) (domain.Role, bool) {
	for _, role := range a.roles[group] {
		if role.ID == roleID {
			return role, true
		}
	}
	return domain.Role{}, false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErr(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]any{{"code": code, "message": message}},
	})
}
