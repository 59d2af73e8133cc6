package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации движка.
// Нулевые значения полей означают "взять из окружения или по умолчанию".
type Config struct {
	World   WorldConfig   `yaml:"world"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Admin   AdminConfig   `yaml:"admin"`
	Debug   DebugConfig   `yaml:"debug"`
}

type WorldConfig struct {
	Seed           *int32 `yaml:"seed"`
	RenderDistance int    `yaml:"render_distance"`
	Workers        int    `yaml:"workers"`
	ModelDefs      string `yaml:"model_defs"`
	SavePath       string `yaml:"save_path"`
}

type ServerConfig struct {
	AdminPort int `yaml:"admin_port"`
	TickRate  int `yaml:"tick_rate"`
	// Интервал автосохранения в секундах, 0 - по умолчанию, <0 - выключено
	AutosaveEvery int `yaml:"autosave_every_seconds"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	JWTSecret    string `yaml:"jwt_secret"`
}

type DebugConfig struct {
	Statsview     bool   `yaml:"statsview"`
	StatsviewAddr string `yaml:"statsview_addr"`
	SentryDSN     string `yaml:"sentry_dsn"`
	OTel          bool   `yaml:"otel"`
	LogLevel      string `yaml:"log_level"`
}

// Default возвращает конфигурацию, в которой все значения берутся из env/дефолтов
func Default() *Config {
	return &Config{}
}

// GetSeed возвращает сид мира. ok=false - сид не задан, его нужно выбрать случайно.
func (w *WorldConfig) GetSeed() (int32, bool) {
	if w.Seed != nil {
		return *w.Seed, true
	}
	if envVal := os.Getenv("VOXEL_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 32); err == nil {
			return int32(seed), true
		}
	}
	return 0, false
}

// GetRenderDistance возвращает радиус загрузки чанков
func (w *WorldConfig) GetRenderDistance() int {
	return getIntWithEnvFallback(w.RenderDistance, "VOXEL_RENDER_DISTANCE", 8)
}

// GetWorkers возвращает число воркеров генерации
func (w *WorldConfig) GetWorkers() int {
	return getIntWithEnvFallback(w.Workers, "VOXEL_WORKERS", 4)
}

// GetModelDefs возвращает путь к YAML с моделями блоков; "" - встроенные модели
func (w *WorldConfig) GetModelDefs() string {
	return getStringWithEnvFallback(w.ModelDefs, "VOXEL_MODEL_DEFS", "")
}

// GetSavePath возвращает путь файла-снимка мира
func (w *WorldConfig) GetSavePath() string {
	return getStringWithEnvFallback(w.SavePath, "VOXEL_SAVE_PATH", "saves/world.mp3d.zst")
}

// GetAdminPort возвращает порт админ-консоли
func (s *ServerConfig) GetAdminPort() int {
	return getIntWithEnvFallback(s.AdminPort, "VOXEL_ADMIN_PORT", 8088)
}

// GetTickRate возвращает частоту тиков в секунду
func (s *ServerConfig) GetTickRate() int {
	return getIntWithEnvFallback(s.TickRate, "VOXEL_TICK_RATE", 60)
}

// GetAutosaveInterval возвращает интервал автосохранения; 0 - выключено
func (s *ServerConfig) GetAutosaveInterval() time.Duration {
	if s.AutosaveEvery < 0 {
		return 0
	}
	return time.Duration(getIntWithEnvFallback(s.AutosaveEvery, "VOXEL_AUTOSAVE_SECONDS", 60)) * time.Second
}

// GetDataDir возвращает директорию BadgerDB
func (s *StorageConfig) GetDataDir() string {
	return getStringWithEnvFallback(s.DataDir, "VOXEL_DATA_DIR", "data")
}

// GetUsername возвращает имя администратора
func (a *AdminConfig) GetUsername() string {
	return getStringWithEnvFallback(a.Username, "VOXEL_ADMIN_USER", "admin")
}

// GetPasswordHash возвращает bcrypt-хеш пароля администратора
func (a *AdminConfig) GetPasswordHash() string {
	return getStringWithEnvFallback(a.PasswordHash, "VOXEL_ADMIN_PASSWORD_HASH", "")
}

// GetJWTSecret возвращает секрет подписи токенов
func (a *AdminConfig) GetJWTSecret() string {
	return getStringWithEnvFallback(a.JWTSecret, "JWT_SECRET", "")
}

// GetStatsviewAddr возвращает адрес страницы statsview
func (d *DebugConfig) GetStatsviewAddr() string {
	return getStringWithEnvFallback(d.StatsviewAddr, "VOXEL_STATSVIEW_ADDR", "localhost:18066")
}

// GetSentryDSN возвращает DSN Sentry; "" - отчёты выключены
func (d *DebugConfig) GetSentryDSN() string {
	return getStringWithEnvFallback(d.SentryDSN, "SENTRY_DSN", "")
}

// GetLogLevel возвращает уровень консольного лога
func (d *DebugConfig) GetLogLevel() string {
	return getStringWithEnvFallback(d.LogLevel, "VOXEL_LOG_LEVEL", "INFO")
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultValue
}

func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан, использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	return &cfg, nil
}
