package infra

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"group-promoter/promotion/domain"

	"github.com/carlmjohnson/requests"
	"golang.org/x/time/rate"
)

const (
	DefaultUsersURL  = "https://users.roblox.com"
	DefaultGroupsURL = "https://groups.roblox.com"
	DefaultAuthURL   = "https://auth.roblox.com"

	cookieName = ".ROBLOSECURITY"
	csrfHeader = "X-CSRF-TOKEN"
)

// RobloxClient é a sessão única do processo com a API da Roblox.
//
// Guarda o cookie e o token CSRF em memória. Não existe re-autenticação:
// o token CSRF só é atualizado quando a própria API devolve um novo.
type RobloxClient struct {
	usersURL  string
	groupsURL string
	authURL   string
	http      *http.Client
	limiter   *rate.Limiter

	mu     sync.RWMutex
	cookie string
	csrf   string
}

type RobloxOption func(*RobloxClient)

func WithUsersURL(u string) RobloxOption {
	return func(c *RobloxClient) { c.usersURL = strings.TrimSuffix(u, "/") }
}

func WithGroupsURL(u string) RobloxOption {
	return func(c *RobloxClient) { c.groupsURL = strings.TrimSuffix(u, "/") }
}

func WithAuthURL(u string) RobloxOption {
	return func(c *RobloxClient) { c.authURL = strings.TrimSuffix(u, "/") }
}

// WithTimeout define o timeout do http.Client. 0 (padrão) = sem timeout.
func WithTimeout(d time.Duration) RobloxOption {
	return func(c *RobloxClient) { c.http = &http.Client{Timeout: d} }
}

func WithHTTPClient(hc *http.Client) RobloxOption {
	return func(c *RobloxClient) { c.http = hc }
}

func NewRobloxClient(opts ...RobloxOption) *RobloxClient {
	c := &RobloxClient{
		usersURL:  DefaultUsersURL,
		groupsURL: DefaultGroupsURL,
		authURL:   DefaultAuthURL,
		http:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter != nil {
		c.http = paced(c.http, c.limiter)
	}
	return c
}

type robloxErrors struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Authenticate implementa domain.Session: guarda o cookie, valida consultando
// o usuário autenticado e obtém o token CSRF usado nas escritas.
func (c *RobloxClient) Authenticate(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.ErrNoCredential
	}
	c.setCookie(credential)

	if _, err := c.AuthenticatedIdentity(ctx); err != nil {
		c.setCookie("")
		return err
	}

	token, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return err
	}
	c.setCSRF(token)
	return nil
}

func (c *RobloxClient) AuthenticatedIdentity(ctx context.Context) (domain.Identity, error) {
	var id domain.Identity
	b, err := c.builder(c.usersURL)
	if err != nil {
		return id, err
	}
	var apiErr robloxErrors
	err = b.
		Path("/v1/users/authenticated").
		ToJSON(&id).
		ErrorJSON(&apiErr).
		Fetch(ctx)
	return id, remoteFailure(err, apiErr)
}

// Promote implementa domain.Promoter: lê os cargos do grupo e o cargo atual,
// escolhe o próximo cargo por rank e aplica a troca.
//
// Os cargos do grupo vêm primeiro: um grupo inválido falha com o erro de grupo
// da API, não com "não é membro".
func (c *RobloxClient) Promote(ctx context.Context, group domain.GroupID, user domain.UserID) (domain.RoleChange, error) {
	roles, err := c.groupRoles(ctx, group)
	if err != nil {
		return domain.RoleChange{}, err
	}
	current, err := c.userRole(ctx, group, user)
	if err != nil {
		return domain.RoleChange{}, err
	}
	next, ok := nextRole(roles, current)
	if !ok {
		return domain.RoleChange{}, domain.ErrHighestRank
	}
	if err := c.setRole(ctx, group, user, next); err != nil {
		return domain.RoleChange{}, err
	}
	return domain.RoleChange{From: current, To: next}, nil
}

func (c *RobloxClient) userRole(ctx context.Context, group domain.GroupID, user domain.UserID) (domain.Role, error) {
	segment, err := pathSegment(user)
	if err != nil {
		return domain.Role{}, err
	}
	b, err := c.builder(c.groupsURL)
	if err != nil {
		return domain.Role{}, err
	}
	var memberships struct {
		Data []struct {
			Group struct {
				ID int64 `json:"id"`
			} `json:"group"`
			Role domain.Role `json:"role"`
		} `json:"data"`
	}
	var apiErr robloxErrors
	err = b.
		Pathf("/v2/users/%s/groups/roles", segment).
		ToJSON(&memberships).
		ErrorJSON(&apiErr).
		Fetch(ctx)
	if err := remoteFailure(err, apiErr); err != nil {
		return domain.Role{}, err
	}
	for _, m := range memberships.Data {
		if m.Group.ID == int64(group) {
			return m.Role, nil
		}
	}
	return domain.Role{}, domain.ErrNotInGroup
}

func (c *RobloxClient) groupRoles(ctx context.Context, group domain.GroupID) ([]domain.Role, error) {
	b, err := c.builder(c.groupsURL)
	if err != nil {
		return nil, err
	}
	var body struct {
		Roles []domain.Role `json:"roles"`
	}
	var apiErr robloxErrors
	err = b.
		Pathf("/v1/groups/%s/roles", group).
		ToJSON(&body).
		ErrorJSON(&apiErr).
		Fetch(ctx)
	if err := remoteFailure(err, apiErr); err != nil {
		return nil, err
	}
	return body.Roles, nil
}

func (c *RobloxClient) setRole(ctx context.Context, group domain.GroupID, user domain.UserID, role domain.Role) error {
	segment, err := pathSegment(user)
	if err != nil {
		return err
	}
	b, err := c.builder(c.groupsURL)
	if err != nil {
		return err
	}
	var apiErr robloxErrors
	err = b.
		Patch().
		Pathf("/v1/groups/%s/users/%s", group, segment).
		Header(csrfHeader, c.csrfToken()).
		BodyJSON(map[string]int64{"roleId": role.ID}).
		AddValidator(c.rememberCSRF).
		ErrorJSON(&apiErr).
		Fetch(ctx)
	return remoteFailure(err, apiErr)
}

// fetchCSRFToken usa o truque padrão da API: um POST sem token em /v2/logout
// responde 403 com o token no header (e não encerra a sessão).
func (c *RobloxClient) fetchCSRFToken(ctx context.Context) (string, error) {
	b, err := c.builder(c.authURL)
	if err != nil {
		return "", err
	}
	var token string
	err = b.
		Post().
		Path("/v2/logout").
		AddValidator(requests.CheckStatus(http.StatusForbidden)).
		Handle(func(res *http.Response) error {
			token = res.Header.Get(csrfHeader)
			return nil
		}).
		Fetch(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New("csrf token missing from response")
	}
	return token, nil
}

func (c *RobloxClient) rememberCSRF(res *http.Response) error {
	if tok := res.Header.Get(csrfHeader); tok != "" {
		c.setCSRF(tok)
	}
	return nil
}

func (c *RobloxClient) builder(base string) (*requests.Builder, error) {
	c.mu.RLock()
	cookie := c.cookie
	c.mu.RUnlock()
	if cookie == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return requests.
		URL(base).
		Client(c.http).
		Header("Cookie", cookieName+"="+cookie), nil
}

func (c *RobloxClient) setCookie(v string) {
	c.mu.Lock()
	c.cookie = v
	c.mu.Unlock()
}

func (c *RobloxClient) setCSRF(v string) {
	c.mu.Lock()
	c.csrf = v
	c.mu.Unlock()
}

func (c *RobloxClient) csrfToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrf
}

// pathSegment devolve o id como segmento de path ainda não escapado: o builder
// escapa ao montar a URL. Segmentos que a resolução de URL colapsaria ou que
// abririam outro nível de path são recusados antes de sair para a rede.
func pathSegment(user domain.UserID) (string, error) {
	s := user.String()
	if s == "" || s == "." || s == ".." || strings.Contains(s, "/") {
		return "", domain.ErrInvalidUserID
	}
	return s, nil
}

// nextRole devolve o cargo de menor rank acima do atual.
func nextRole(roles []domain.Role, current domain.Role) (domain.Role, bool) {
	sorted := slices.Clone(roles)
	slices.SortFunc(sorted, func(a, b domain.Role) int { return cmp.Compare(a.Rank, b.Rank) })
	for _, r := range sorted {
		if r.Rank > current.Rank {
			return r, true
		}
	}
	return domain.Role{}, false
}

// remoteFailure troca o erro genérico de status pela mensagem da API, quando houver.
func remoteFailure(err error, body robloxErrors) error {
	if err == nil {
		return nil
	}
	var resErr *requests.ResponseError
	if !errors.As(err, &resErr) {
		return err
	}
	if len(body.Errors) == 0 || body.Errors[0].Message == "" {
		return err
	}
	return &domain.RemoteError{
		StatusCode: resErr.StatusCode,
		Code:       body.Errors[0].Code,
		Message:    body.Errors[0].Message,
	}
}
