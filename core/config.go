package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		RollbarToken string
		WorkDir      string

		Server struct {
			Addr            string
			DebugAddr       string
			SecretKey       string
			SessionTTL      time.Duration
			ShutdownTimeout time.Duration
			SecureCookies   bool
		}

		Gateway struct {
			BaseURL string
			Timeout time.Duration
		}

		Identity struct {
			URL         string
			ClientID    string
			Scopes      []string
			CallbackURL string
		}

		Redis struct {
			Addr     string
			Password string
			DB       int
		}

		Wizard struct {
			ActionTimeout time.Duration
		}

		Upload struct {
			MaxFiles    int
			MaxFileSize int64
		}

		Batch struct {
			DefaultStartWeek int
		}
	}
)

// NewConfig loads the configuration from the environment.
// Every key can be overridden with an env var prefixed with the current ENV, eg. PROD_GATEWAY_BASEURL.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Attendance")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.debugAddr", "")
	v.SetDefault("server.secretKey", "k3y!n0t-f0r-pr0d$9w=vx#m2(7hq&sz)b4u@lc")
	v.SetDefault("server.sessionTTL", 8*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.secureCookies", false)
	v.SetDefault("gateway.baseURL", "http://localhost:8000")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("identity.url", "http://localhost:8000/oauth/authorize")
	v.SetDefault("identity.clientID", "attendance-web")
	v.SetDefault("identity.scopes", "openid,email,profile")
	v.SetDefault("identity.callbackURL", "http://localhost:8080/auth/callback")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("wizard.actionTimeout", 2*time.Minute)
	v.SetDefault("upload.maxFiles", 20)
	v.SetDefault("upload.maxFileSize", int64(10<<20))
	v.SetDefault("batch.defaultStartWeek", 1)

	conf := new(Config)
	conf.WorkDir = Getwd()

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.TestMode = true
	}
	conf.Env = env
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(conf.WorkDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf.Build = v.GetString("build")
	conf.Debug = v.GetBool("debug")
	conf.AppName = v.GetString("appName")
	conf.RollbarToken = v.GetString("rollbarToken")

	conf.Server.Addr = v.GetString("server.addr")
	conf.Server.DebugAddr = v.GetString("server.debugAddr")
	conf.Server.SecretKey = v.GetString("server.secretKey")
	conf.Server.SessionTTL = v.GetDuration("server.sessionTTL")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.SecureCookies = v.GetBool("server.secureCookies")

	conf.Gateway.BaseURL = strings.TrimRight(v.GetString("gateway.baseURL"), "/")
	conf.Gateway.Timeout = v.GetDuration("gateway.timeout")

	conf.Identity.URL = v.GetString("identity.url")
	conf.Identity.ClientID = v.GetString("identity.clientID")
	conf.Identity.Scopes = splitList(v.GetString("identity.scopes"))
	conf.Identity.CallbackURL = v.GetString("identity.callbackURL")

	conf.Redis.Addr = v.GetString("redis.addr")
	conf.Redis.Password = v.GetString("redis.password")
	conf.Redis.DB = v.GetInt("redis.db")

	conf.Wizard.ActionTimeout = v.GetDuration("wizard.actionTimeout")

	conf.Upload.MaxFiles = v.GetInt("upload.maxFiles")
	conf.Upload.MaxFileSize = v.GetInt64("upload.maxFileSize")

	conf.Batch.DefaultStartWeek = v.GetInt("batch.defaultStartWeek")
	return conf
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = CleanString(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
