package auth

import (
	"net/http"
	"strings"
)

// Identity — разрешённая личность пользователя. Аутентификация внешняя;
// сервису важен только результат её работы.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

func (id Identity) Resolved() bool { return id.ID != "" }

// Resolver извлекает личность из запроса. Пустой Identity = не аутентифицирован.
type Resolver interface {
	Resolve(r *http.Request) Identity
}

// HeaderResolver доверяет заголовкам, проставленным внешним auth-прокси.
type HeaderResolver struct {
	IDHeader    string
	EmailHeader string
	NameHeader  string
}

func NewHeaderResolver(idHeader, emailHeader, nameHeader string) *HeaderResolver {
	if idHeader == "" {
		idHeader = "X-User-Id"
	}
	if emailHeader == "" {
		emailHeader = "X-User-Email"
	}
	if nameHeader == "" {
		nameHeader = "X-User-Name"
	}
	return &HeaderResolver{IDHeader: idHeader, EmailHeader: emailHeader, NameHeader: nameHeader}
}

func (h *HeaderResolver) Resolve(r *http.Request) Identity {
	return Identity{
		ID:    strings.TrimSpace(r.Header.Get(h.IDHeader)),
		Email: strings.TrimSpace(strings.ToLower(r.Header.Get(h.EmailHeader))),
		Name:  strings.TrimSpace(r.Header.Get(h.NameHeader)),
	}
}
