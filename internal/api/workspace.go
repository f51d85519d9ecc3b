package api

import (
	"sync"

	"github.com/tidwall/buntdb"

	"construktor/internal/auth"
	"construktor/internal/editor"
	"construktor/internal/invite"
	"construktor/internal/prefs"
	"construktor/internal/records"
	"construktor/internal/schema"
	"construktor/internal/store"
)

// Hub — общее состояние сервера: стор, каталог типов полей и рабочие
// пространства пользователей (лениво, по первому запросу).
type Hub struct {
	Store      store.Store
	FieldTypes *schema.FieldTypeCatalog
	Invites    *invite.Service

	localCache *buntdb.DB

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewHub(st store.Store, types *schema.FieldTypeCatalog, localCache *buntdb.DB) *Hub {
	return &Hub{
		Store:      st,
		FieldTypes: types,
		Invites:    invite.NewService(st),
		localCache: localCache,
		workspaces: map[string]*Workspace{},
	}
}

// Workspace — сервисы одного пользователя над его веткой стора. Мьютекс
// сериализует запросы пользователя: кэши каталога/модулей и сессия
// редактора не рассчитаны на конкурентный доступ.
type Workspace struct {
	mu sync.Mutex

	User    auth.Identity
	Repo    *schema.Repository
	Catalog *schema.Catalog
	Modules *schema.Index
	Records *records.Service
	Prefs   *prefs.Store
	Editor  *editor.Session
}

func (h *Hub) workspace(user auth.Identity) *Workspace {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ws, ok := h.workspaces[user.ID]; ok {
		return ws
	}
	repo := schema.NewRepository(h.Store, user)
	catalog := schema.NewCatalog(h.Store, user)
	ws := &Workspace{
		User:    user,
		Repo:    repo,
		Catalog: catalog,
		Modules: schema.NewIndex(h.Store, user),
		Records: records.NewService(h.Store, user),
		Prefs:   prefs.New(h.Store, h.localCache, user),
		Editor:  editor.NewSession(repo, catalog, h.FieldTypes),
	}
	h.workspaces[user.ID] = ws
	return ws
}
