package store

import "context"

// Store — адаптер удалённого документного хранилища: дерево JSON-значений,
// адресуемое путями вида "users/u1/schemas/m1/e1". Реализация снаружи
// (in-memory для локального запуска и тестов, Postgres для продакшена).
type Store interface {
	// Get читает узел по пути в dest. Возвращает false, если узла нет
	// (мягкий not found — не ошибка).
	Get(ctx context.Context, path string, dest any) (bool, error)

	// Set полностью перезаписывает узел (и всё его поддерево).
	Set(ctx context.Context, path string, value any) error

	// Update сливает поля в существующий узел. nil-значение поля удаляет его.
	Update(ctx context.Context, path string, fields map[string]any) error

	// Remove удаляет узел вместе с поддеревом. Отсутствие узла — не ошибка.
	Remove(ctx context.Context, path string) error

	// Push создаёт дочерний узел с хранилищем-сгенерированным id и
	// возвращает этот id.
	Push(ctx context.Context, path string, value any) (string, error)

	// MultiUpdate применяет набор путь→значение одним атомарным вызовом.
	// nil в качестве значения удаляет узел. Либо применяется всё, либо ничего.
	MultiUpdate(ctx context.Context, updates map[string]any) error

	// QueryEqual выбирает из плоской коллекции path те записи, у которых
	// дочернее поле child равно value. dest — указатель на map[string]T.
	QueryEqual(ctx context.Context, path, child, value string, dest any) error
}
