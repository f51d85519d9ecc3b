package config

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
)

type Config struct {
	Port          string `json:"port"`
	DBURL         string `json:"dbUrl"`
	FieldTypesDir string `json:"fieldTypesDir"`
	PrefsCache    string `json:"prefsCache"`

	// Заголовки, из которых берём личность пользователя (ставит
	// обратный прокси после своей аутентификации).
	UserIDHeader    string `json:"userIdHeader"`
	UserEmailHeader string `json:"userEmailHeader"`
	UserNameHeader  string `json:"userNameHeader"`
}

func def() Config {
	return Config{
		Port:          "8080",
		DBURL:         "",
		FieldTypesDir: "reference/fieldtypes",
		PrefsCache:    "prefs-cache.db",

		UserIDHeader:    "X-User-Id",
		UserEmailHeader: "X-User-Email",
		UserNameHeader:  "X-User-Name",
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// LoadWithPath читает JSON по указанному пути, потом применяет ENV и флаги.
func LoadWithPath(jsonPath string) Config {
	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(jsonPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("CONSTRUKTOR_PORT", cfg.Port)
	cfg.DBURL = getenv("CONSTRUKTOR_DB_URL", cfg.DBURL)
	cfg.FieldTypesDir = getenv("CONSTRUKTOR_FIELD_TYPES_DIR", cfg.FieldTypesDir)
	cfg.PrefsCache = getenv("CONSTRUKTOR_PREFS_CACHE", cfg.PrefsCache)
	cfg.UserIDHeader = getenv("CONSTRUKTOR_USER_ID_HEADER", cfg.UserIDHeader)
	cfg.UserEmailHeader = getenv("CONSTRUKTOR_USER_EMAIL_HEADER", cfg.UserEmailHeader)
	cfg.UserNameHeader = getenv("CONSTRUKTOR_USER_NAME_HEADER", cfg.UserNameHeader)

	// Flags overrides
	configPath := flag.String("config", jsonPath, "Path to config JSON")
	port := flag.String("port", cfg.Port, "HTTP port")
	db := flag.String("db", cfg.DBURL, "Postgres URL (empty = in-memory)")
	types := flag.String("field-types", cfg.FieldTypesDir, "Path to field type catalogs")
	cache := flag.String("prefs-cache", cfg.PrefsCache, "Local preferences cache file")

	flag.Parse()

	// Если через флаг передали другой конфиг — перечитаем
	if *configPath != jsonPath {
		return LoadWithPath(*configPath)
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.DBURL = strings.TrimSpace(*db)
	cfg.FieldTypesDir = strings.TrimSpace(*types)
	cfg.PrefsCache = strings.TrimSpace(*cache)

	return cfg
}
