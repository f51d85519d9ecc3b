package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tidwall/buntdb"

	"construktor/internal/api"
	"construktor/internal/auth"
	"construktor/internal/config"
	"construktor/internal/schema"
	"construktor/internal/store"
)

func main() {
	cfg := config.LoadWithPath("config.json")

	// 1. Стор: Postgres при заданном DB URL, иначе in-memory
	var st store.Store
	if cfg.DBURL != "" {
		pg, err := store.OpenPostgres(cfg.DBURL)
		if err != nil {
			log.Fatalf("Ошибка подключения к Postgres: %v", err)
		}
		defer pg.Close()
		st = pg
		fmt.Println("Хранилище: Postgres")
	} else {
		st = store.NewMemory()
		fmt.Println("Хранилище: in-memory")
	}

	// 2. Каталог типов полей: yaml-файлы, при отсутствии — встроенный набор
	types, err := schema.LoadFieldTypes(cfg.FieldTypesDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Ошибка загрузки типов полей: %v", err)
		}
		types = schema.DefaultFieldTypes()
	}
	fmt.Printf("Загружено типов полей: %d\n", len(types.Types()))

	// 3. Локальное зеркало настроек
	cache, err := buntdb.Open(cfg.PrefsCache)
	if err != nil {
		log.Fatalf("Ошибка открытия кэша настроек: %v", err)
	}
	defer cache.Close()

	hub := api.NewHub(st, types, cache)
	resolver := auth.NewHeaderResolver(cfg.UserIDHeader, cfg.UserEmailHeader, cfg.UserNameHeader)

	fmt.Printf("Стартуем сервер Construktor на :%s...\n", cfg.Port)
	if err := api.RunServer(":"+cfg.Port, hub, resolver); err != nil {
		log.Fatalf("Сервер остановился с ошибкой: %v", err)
	}
}
