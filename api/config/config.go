// api/config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server         ServerConfiguration
	Neo4j          DatabaseConfiguration
	Redis          RedisConfiguration
	Elasticsearch  ElasticsearchConfiguration
	Jira           JiraConfiguration
	Smtp           SmtpConfiguration
	Reconciliation ReconciliationConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// DatabaseConfiguration stores data for database connection
type DatabaseConfiguration struct {
	URI string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	DefaultCacheTTL string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// JiraConfiguration stores data for the external issue tracker
type JiraConfiguration struct {
	BaseURL   string
	Username  string
	APIToken  string
	IssueType string
}

// SmtpConfiguration stores settings for the outbound mail sink
type SmtpConfiguration struct {
	From string
	Host string
	Port int
}

// ReconciliationConfiguration stores settings for multi-source sync
type ReconciliationConfiguration struct {
	AdapterTimeout        string
	MaxConcurrentFetches  int
	AllowCompletedRefresh bool
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("jira.issueType", "Task")
	viper.SetDefault("jira.requestTimeout", "15s")
	viper.SetDefault("jira.defaultProject", "AUDIT")
	viper.SetDefault("sources.directoryGroup.url", "http://localhost:8081")
	viper.SetDefault("sources.codeHost.url", "http://localhost:8082")
	viper.SetDefault("sources.directoryService.url", "http://localhost:8083")
	viper.SetDefault("smtp.from", "access-review@localhost")
	viper.SetDefault("reconciliation.adapterTimeout", "30s")
	viper.SetDefault("reconciliation.maxConcurrentFetches", 4)
	viper.SetDefault("reconciliation.allowCompletedRefresh", false)
	viper.SetDefault("log.dir", "logs")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
