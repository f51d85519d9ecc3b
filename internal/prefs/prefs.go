// Package prefs — пользовательские настройки интерфейса. Значения
// держатся в памяти сессии, пишутся в удалённый стор и зеркалируются в
// локальный buntdb-кэш: при недоступном сторе настройки читаются из
// зеркала, а не теряются.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/tidwall/buntdb"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

type Store struct {
	st    store.Store
	local *buntdb.DB
	user  auth.Identity

	values map[string]json.RawMessage
}

func New(st store.Store, local *buntdb.DB, user auth.Identity) *Store {
	return &Store{
		st:     st,
		local:  local,
		user:   user,
		values: map[string]json.RawMessage{},
	}
}

func (p *Store) path(key string) string {
	return "users/" + p.user.ID + "/preferences/" + key
}

// Load подтягивает настройки из стора. Ошибка чтения не фатальна:
// сессия стартует с пустым набором, Get доберёт значения из зеркала.
func (p *Store) Load(ctx context.Context) {
	if !p.user.Resolved() {
		return
	}
	var raw map[string]json.RawMessage
	if _, err := p.st.Get(ctx, "users/"+p.user.ID+"/preferences", &raw); err != nil {
		log.Printf("prefs: load for %s failed: %v", p.user.ID, err)
		return
	}
	if raw != nil {
		p.values = raw
	}
}

// Save пишет значение в память, зеркало и стор. Зеркало обновляется даже
// при отказе стора — ошибка стора при этом возвращается наверх.
func (p *Store) Save(ctx context.Context, key string, value any) error {
	if !p.user.Resolved() {
		return apperr.Unauthenticated()
	}
	if key == "" {
		return apperr.Validation("key", "preference key is required")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return apperr.E(apperr.CodeValidation, "key", "preference value is not serializable")
	}
	p.values[key] = raw

	if lerr := p.local.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(p.path(key), string(raw), nil)
		return err
	}); lerr != nil {
		log.Printf("prefs: local mirror write failed: %v", lerr)
	}

	if err := p.st.Set(ctx, p.path(key), value); err != nil {
		return apperr.Remote("failed to persist preference", err)
	}
	return nil
}

// Get читает значение: память сессии, затем локальное зеркало, затем
// дефолт. В dest — указатель на целевой тип.
func (p *Store) Get(key string, dest any, def any) error {
	if raw, ok := p.values[key]; ok {
		if err := json.Unmarshal(raw, dest); err == nil {
			return nil
		}
	}

	var mirrored string
	err := p.local.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(p.path(key))
		if err != nil {
			return err
		}
		mirrored = v
		return nil
	})
	if err == nil {
		if uerr := json.Unmarshal([]byte(mirrored), dest); uerr == nil {
			return nil
		}
	} else if !errors.Is(err, buntdb.ErrNotFound) {
		log.Printf("prefs: local mirror read failed: %v", err)
	}

	raw, merr := json.Marshal(def)
	if merr != nil {
		return merr
	}
	return json.Unmarshal(raw, dest)
}
