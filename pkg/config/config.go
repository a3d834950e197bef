package config

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config configuración de la aplicación. Todos los valores pueden venir de
// variables de entorno o de un archivo .env en el directorio de trabajo.
type Config struct {
	AppEnv  string
	AppName string

	// Rutas de datos. DataDir es la raíz; el resto se resuelve relativo a
	// ella cuando no se configura explícitamente.
	DataDir      string
	DBPath       string
	SettingsPath string
	LogsDir      string
	ExportDir    string
	BackupDir    string

	// Actor que firma las entradas de auditoría. Por defecto el usuario
	// del sistema operativo.
	Actor string

	// Script externo de mantenimiento y su tiempo máximo de ejecución.
	UpdateScript         string
	UpdateTimeoutSeconds int

	LogLevel string
}

// Load lee la configuración con viper. El archivo .env es opcional; las
// variables de entorno siempre tienen precedencia.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// El .env puede no existir: se ignora y quedan los valores de entorno.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	dataDir := getString(v, "DATA_DIR", defaultDataDir())

	cfg := &Config{
		AppEnv:               getString(v, "APP_ENV", "development"),
		AppName:              getString(v, "APP_NAME", "gestion-financiera"),
		DataDir:              dataDir,
		DBPath:               getString(v, "DB_PATH", filepath.Join(dataDir, "dados.db")),
		SettingsPath:         getString(v, "SETTINGS_PATH", filepath.Join(dataDir, "settings.json")),
		LogsDir:              getString(v, "LOGS_DIR", filepath.Join(dataDir, "logs")),
		ExportDir:            getString(v, "EXPORT_DIR", filepath.Join(dataDir, "exportados")),
		BackupDir:            getString(v, "BACKUP_DIR", filepath.Join(dataDir, "backups")),
		Actor:                getString(v, "ACTOR", defaultActor()),
		UpdateScript:         getString(v, "UPDATE_SCRIPT", filepath.Join(dataDir, "atualizar.sh")),
		UpdateTimeoutSeconds: getInt(v, "UPDATE_TIMEOUT_SECONDS", 600),
		LogLevel:             getString(v, "LOG_LEVEL", "info"),
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, fallback string) string {
	if v.IsSet(key) && v.GetString(key) != "" {
		return v.GetString(key)
	}
	return fallback
}

func getInt(v *viper.Viper, key string, fallback int) int {
	if v.IsSet(key) && v.GetInt(key) != 0 {
		return v.GetInt(key)
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dados"
	}
	return filepath.Join(home, ".gestion-financiera")
}

func defaultActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "desconhecido"
}
