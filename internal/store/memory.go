package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory — хранилище-дерево в памяти. Семантика как у удалённого стора:
// значения нормализуются через JSON, пустые узлы отмирают, push-id
// монотонные. Используется в тестах и при запуске без Postgres.
type Memory struct {
	mu      sync.RWMutex
	root    map[string]any
	entropy io.Reader
}

func NewMemory() *Memory {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Memory{
		root:    make(map[string]any),
		entropy: ulid.Monotonic(src, 0),
	}
}

func (m *Memory) newID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), m.entropy).String()
}

func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, fmt.Errorf("store: empty path")
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("store: bad path %q", path)
		}
	}
	return parts, nil
}

// normalize прогоняет значение через JSON, чтобы в дереве лежали только
// map[string]any / []any / примитивы — как пришло бы с провода.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: value not serializable: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Memory) lookup(parts []string) (any, bool) {
	var cur any = m.root
	for _, p := range parts {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func (m *Memory) setLocked(parts []string, value any) {
	node := m.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[p] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}

func (m *Memory) removeLocked(parts []string) {
	// собираем цепочку узлов, чтобы подчистить опустевшие
	chain := make([]map[string]any, 0, len(parts))
	node := m.root
	for _, p := range parts[:len(parts)-1] {
		chain = append(chain, node)
		child, ok := node[p].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
	chain = append(chain, node)
	delete(node, parts[len(parts)-1])

	for i := len(chain) - 1; i > 0; i-- {
		if len(chain[i]) == 0 {
			delete(chain[i-1], parts[i-1])
		}
	}
}

func (m *Memory) Get(_ context.Context, path string, dest any) (bool, error) {
	parts, err := splitPath(path)
	if err != nil {
		return false, err
	}

	m.mu.RLock()
	node, ok := m.lookup(parts)
	var raw []byte
	if ok {
		raw, err = json.Marshal(node)
	}
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, path string, value any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	norm, err := normalize(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if norm == nil {
		m.removeLocked(parts)
		return nil
	}
	m.setLocked(parts, norm)
	return nil
}

func (m *Memory) Update(_ context.Context, path string, fields map[string]any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range fields {
		if v == nil {
			m.removeLocked(append(append([]string{}, parts...), k))
			continue
		}
		norm, err := normalize(v)
		if err != nil {
			return err
		}
		m.setLocked(append(append([]string{}, parts...), k), norm)
	}
	return nil
}

func (m *Memory) Remove(_ context.Context, path string) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(parts)
	return nil
}

func (m *Memory) Push(ctx context.Context, path string, value any) (string, error) {
	id := m.newID()
	if err := m.Set(ctx, path+"/"+id, value); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) MultiUpdate(_ context.Context, updates map[string]any) error {
	type op struct {
		parts []string
		value any // nil = удалить
	}
	ops := make([]op, 0, len(updates))
	for p, v := range updates {
		parts, err := splitPath(p)
		if err != nil {
			return err
		}
		if v == nil {
			ops = append(ops, op{parts: parts})
			continue
		}
		norm, err := normalize(v)
		if err != nil {
			return err
		}
		ops = append(ops, op{parts: parts, value: norm})
	}

	// все пути и значения уже проверены — применяем под одним локом
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range ops {
		if o.value == nil {
			m.removeLocked(o.parts)
		} else {
			m.setLocked(o.parts, o.value)
		}
	}
	return nil
}

func (m *Memory) QueryEqual(_ context.Context, path, child, value string, dest any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}

	m.mu.RLock()
	node, ok := m.lookup(parts)
	matched := make(map[string]any)
	if ok {
		coll, isMap := node.(map[string]any)
		if !isMap {
			m.mu.RUnlock()
			return fmt.Errorf("store: %q is not a collection", path)
		}
		for id, rec := range coll {
			obj, isObj := rec.(map[string]any)
			if !isObj {
				continue
			}
			if stringify(obj[child]) == value {
				matched[id] = obj
			}
		}
	}
	raw, err := json.Marshal(matched)
	m.mu.RUnlock()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
