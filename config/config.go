package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p Postgres) ConnStr() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s", p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode)
}

func (p Postgres) ReplicationConnStr() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s replication=database", p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode)
}

type Nats struct {
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	Stream        string `mapstructure:"stream"`
	ReloadSubject string `mapstructure:"reloadSubject"`
}

func (n Nats) ConnStr() string {
	return fmt.Sprintf("nats://%s:%s", n.Host, n.Port)
}

type Replication struct {
	Name string `mapstructure:"name"`
	Slot string `mapstructure:"slot"`
}

type Ollama struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	ChatModel string `mapstructure:"chatModel"`
}

func (o *Ollama) Address() string {
	return fmt.Sprintf("http://%s:%s", o.Host, o.Port)
}

type Server struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Knowledge controls where the entity store is loaded from. Source is
// "postgres" or "jsonl"; when the primary source fails the JSONL paths are
// tried in order before giving up.
type Knowledge struct {
	Source     string   `mapstructure:"source"`
	JSONLPaths []string `mapstructure:"jsonlPaths"`
}

type Searcher struct {
	City           string `mapstructure:"city"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	BookingBaseURL string `mapstructure:"bookingBaseURL"`
	GoogleBaseURL  string `mapstructure:"googleBaseURL"`
}

type Config struct {
	Postgres    Postgres    `mapstructure:"postgres"`
	Nats        Nats        `mapstructure:"nats"`
	Ollama      Ollama      `mapstructure:"ollama"`
	Replication Replication `mapstructure:"replication"`
	Server      Server      `mapstructure:"server"`
	Knowledge   Knowledge   `mapstructure:"knowledge"`
	Searcher    Searcher    `mapstructure:"searcher"`
}

func LoadConfig() *Config {
	viper.SetConfigFile("./config/config.yaml")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatal(err)
	}

	if config.Knowledge.Source == "" {
		config.Knowledge.Source = "postgres"
	}
	if len(config.Knowledge.JSONLPaths) == 0 {
		config.Knowledge.JSONLPaths = []string{
			"turismo_data_completo_v2.jsonl",
			"turismo_data.jsonl",
		}
	}
	if config.Searcher.City == "" {
		config.Searcher.City = "Santo Domingo de los Tsáchilas"
	}
	if config.Searcher.TimeoutSeconds <= 0 {
		config.Searcher.TimeoutSeconds = 10
	}

	return &config
}
