package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agoravoting/election-orchestra/internal/util"
	"github.com/rs/zerolog"
)

// Authority holds the local node's identity within ceremonies: how other
// authorities reach it and which certificate it presents on the task bus.
type Authority struct {
	// RootURL is this node's public orchestra endpoint. It is the value other
	// authorities list for us in their submissions and the key used to find
	// our own entry in an incoming authority list.
	RootURL       string
	CertFile      string
	ServerURL     string
	HintServerURL string
}

// Ceremony groups the knobs of the key-generation ceremony itself.
type Ceremony struct {
	AutoAcceptRequests      bool
	MaxQuestionsPerElection int
	OperatorEmail           string
}

// Paths locates the private working area and the public mirror.
type Paths struct {
	PrivateDataPath string
	PublicDataPath  string
}

type Database struct {
	Host             string
	Port             int
	Username         string
	Password         string
	Database         string
	AdditionalParams map[string]string
	Enabled          bool
}

// ConnectionString generates a connection string to be passed to sql.Open.
func (c Database) ConnectionString() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s", c.Host, c.Port, c.Username, c.Password, c.Database))

	if len(c.AdditionalParams) > 0 {
		params := make([]string, 0, len(c.AdditionalParams))
		for param := range c.AdditionalParams {
			params = append(params, param)
		}
		sort.Strings(params)

		for _, param := range params {
			fmt.Fprintf(&b, " %s=%s", param, c.AdditionalParams[param])
		}
	}

	return b.String()
}

type Redis struct {
	Enabled  bool
	Endpoint string
}

type Mixnet struct {
	InfoToolBinary  string
	MixnetBinary    string
	ConverterBinary string
}

type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnableRecoverMiddleware        bool
	EnableLoggerMiddleware         bool
}

type LoggerServer struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

type Mailer struct {
	DefaultSender string
	Send          bool
}

// Server bundles the whole process configuration. It replaces what the
// original service kept as ambient globals: one explicit object passed into
// every component.
type Server struct {
	Authority Authority
	Ceremony  Ceremony
	Paths     Paths
	Database  Database
	Redis     Redis
	Mixnet    Mixnet
	Echo      EchoServer
	Logger    LoggerServer
	SMTP      SMTP
	Mailer    Mailer
}

// DefaultServiceConfigFromEnv returns the server config as parsed from the
// environment, with development-friendly defaults.
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Authority: Authority{
			RootURL:       util.GetEnv("ORCHESTRA_ROOT_URL", "https://127.0.0.1:5000/api/queues"),
			CertFile:      util.GetEnv("ORCHESTRA_CERT_FILE", "certs/authority.crt"),
			ServerURL:     util.GetEnv("ORCHESTRA_SERVER_URL", "http://127.0.0.1:8081"),
			HintServerURL: util.GetEnv("ORCHESTRA_HINT_SERVER_URL", "127.0.0.1:8082"),
		},
		Ceremony: Ceremony{
			AutoAcceptRequests:      util.GetEnvAsBool("ORCHESTRA_AUTOACCEPT_REQUESTS", false),
			MaxQuestionsPerElection: util.GetEnvAsInt("ORCHESTRA_MAX_QUESTIONS_PER_ELECTION", 10),
			OperatorEmail:           util.GetEnv("ORCHESTRA_OPERATOR_EMAIL", ""),
		},
		Paths: Paths{
			PrivateDataPath: util.GetEnv("ORCHESTRA_PRIVATE_DATA_PATH", "/srv/election-orchestra/private"),
			PublicDataPath:  util.GetEnv("ORCHESTRA_PUBLIC_DATA_PATH", "/srv/election-orchestra/public"),
		},
		Database: Database{
			Host:     util.GetEnv("PGHOST", "postgres"),
			Port:     util.GetEnvAsInt("PGPORT", 5432),
			Username: util.GetEnv("PGUSER", "orchestra"),
			Password: util.GetEnv("PGPASSWORD", ""),
			Database: util.GetEnv("PGDATABASE", "orchestra"),
			AdditionalParams: map[string]string{
				"sslmode": util.GetEnv("PGSSLMODE", "disable"),
			},
			Enabled: util.GetEnvAsBool("ORCHESTRA_DB_ENABLED", true),
		},
		Redis: Redis{
			Enabled:  util.GetEnvAsBool("ORCHESTRA_REDIS_ENABLED", false),
			Endpoint: util.GetEnv("ORCHESTRA_REDIS_ENDPOINT", "127.0.0.1:6379"),
		},
		Mixnet: Mixnet{
			InfoToolBinary:  util.GetEnv("ORCHESTRA_MIXNET_INFO_TOOL", "vmni"),
			MixnetBinary:    util.GetEnv("ORCHESTRA_MIXNET_TOOL", "vmn"),
			ConverterBinary: util.GetEnv("ORCHESTRA_MIXNET_CONVERTER", "vmnc"),
		},
		Echo: EchoServer{
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":5000"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
			EnableRecoverMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableLoggerMiddleware:         util.GetEnvAsBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true),
		},
		Logger: LoggerServer{
			Level:              parseLogLevel(util.GetEnv("SERVER_LOGGER_LEVEL", "info")),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		SMTP: SMTP{
			Host:     util.GetEnv("SERVER_SMTP_HOST", "localhost"),
			Port:     util.GetEnvAsInt("SERVER_SMTP_PORT", 25),
			Username: util.GetEnv("SERVER_SMTP_USERNAME", ""),
			Password: util.GetEnv("SERVER_SMTP_PASSWORD", ""),
			UseTLS:   util.GetEnvAsBool("SERVER_SMTP_USE_TLS", false),
		},
		Mailer: Mailer{
			DefaultSender: util.GetEnv("SERVER_MAILER_DEFAULT_SENDER", "orchestra@localhost"),
			Send:          util.GetEnvAsBool("SERVER_MAILER_SEND", false),
		},
	}
}

func parseLogLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
