package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WA3FECTA_LOG_LEVEL.
const EnvPrefix = "WA3FECTA"

// legacyEnv maps setting keys to the variables used by the original scripts.
//
//nolint:gochecknoglobals // Static lookup table.
var legacyEnv = map[string]string{
	"mongo.uri":      "MONGODB_URI",
	"mongo.user":     "MONGO_USER",
	"mongo.password": "MONGO_PASS",
	"mongo.database": "MONGODB_DATABASENAME",
}

// applyEnv overrides settings with values found in the environment.
func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		// Prefixed names win over the legacy ones.
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy)
	}

	setString(v, "mongo.uri", &cfg.Mongo.URI)
	setString(v, "mongo.user", &cfg.Mongo.User)
	setString(v, "mongo.password", &cfg.Mongo.Password)
	setString(v, "mongo.database", &cfg.Mongo.Database)
	setString(v, "mongo.collection", &cfg.Mongo.Collection)

	setString(v, "masking.mode", &cfg.Masking.Mode)
	setBool(v, "masking.allow_disk_use", &cfg.Masking.AllowDiskUse)
	setInt(v, "masking.max_memory_records", &cfg.Masking.MaxMemoryRecords)
	setInt(v, "masking.workers", &cfg.Masking.Workers)
	setString(v, "masking.spill_dir", &cfg.Masking.SpillDir)
	setString(v, "masking.spill_memory_limit", &cfg.Masking.SpillMemoryLimit)
	setString(v, "masking.input_file", &cfg.Masking.InputFile)

	setString(v, "clearer.clear_url", &cfg.Clearer.ClearURL)
	setString(v, "clearer.schedule", &cfg.Clearer.Schedule)
	setString(v, "clearer.journal_file", &cfg.Clearer.JournalFile)
	setBool(v, "clearer.insecure_skip_verify", &cfg.Clearer.InsecureSkipVerify)

	if v.IsSet("clearer.pause") {
		cfg.Clearer.Pause = v.GetDuration("clearer.pause")
	}

	if v.IsSet("clearer.cooldown") {
		cfg.Clearer.Cooldown = v.GetDuration("clearer.cooldown")
	}

	setString(v, "server.listen_addr", &cfg.Server.ListenAddress)
	setString(v, "log.level", &cfg.Log.Level)
	setString(v, "log.format", &cfg.Log.Format)
	setString(v, "metrics_addr", &cfg.MetricsAddress)

	if v.IsSet("timeout") {
		cfg.Timeout = v.GetDuration("timeout")
	}
}

func setString(v *viper.Viper, key string, target *string) {
	if v.IsSet(key) {
		*target = v.GetString(key)
	}
}

func setBool(v *viper.Viper, key string, target *bool) {
	if v.IsSet(key) {
		*target = v.GetBool(key)
	}
}

func setInt(v *viper.Viper, key string, target *int) {
	if v.IsSet(key) {
		*target = v.GetInt(key)
	}
}
