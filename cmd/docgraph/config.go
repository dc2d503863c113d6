package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/siherrmann/docgraph"
	"github.com/siherrmann/docgraph/helper"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newViper reads the optional config file and DOCGRAPH_ environment variables.
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	defaults := docgraph.DefaultConfig()
	v.SetDefault("search-backend", defaults.SearchBackend)
	v.SetDefault("graph-backend", defaults.GraphBackend)
	v.SetDefault("elastic.addresses", defaults.Elastic.Addresses)
	v.SetDefault("elastic.index", defaults.Elastic.Index)
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.refresh", false)
	v.SetDefault("neo4j.uri", defaults.Neo4j.URI)
	v.SetDefault("neo4j.username", defaults.Neo4j.Username)
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("recognizer", defaults.Recognizer)
	v.SetDefault("recognizer-url", defaults.RecognizerURL)
	v.SetDefault("recognizer-timeout", defaults.RecognizerTimeout)
	v.SetDefault("ner-model", defaults.NERModel)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	return v, nil
}

// configFromViper builds the docgraph configuration. The database settings come
// from the DB_ environment variables and are only read for postgres backends.
// The returned log file is nil unless log-file is set, the caller closes it.
func configFromViper(v *viper.Viper, stderr io.Writer) (*docgraph.Config, *lumberjack.Logger, error) {
	config := docgraph.DefaultConfig()

	config.SearchBackend = v.GetString("search-backend")
	config.GraphBackend = v.GetString("graph-backend")
	config.Elastic.Addresses = v.GetStringSlice("elastic.addresses")
	config.Elastic.Index = v.GetString("elastic.index")
	config.Elastic.Username = v.GetString("elastic.username")
	config.Elastic.Password = v.GetString("elastic.password")
	config.Elastic.Refresh = v.GetBool("elastic.refresh")
	config.Neo4j.URI = v.GetString("neo4j.uri")
	config.Neo4j.Username = v.GetString("neo4j.username")
	config.Neo4j.Password = v.GetString("neo4j.password")
	config.Neo4j.Database = v.GetString("neo4j.database")
	config.Recognizer = v.GetString("recognizer")
	config.RecognizerURL = v.GetString("recognizer-url")
	config.RecognizerTimeout = v.GetDuration("recognizer-timeout")
	config.NERModel = v.GetString("ner-model")

	var level slog.Level
	err := level.UnmarshalText([]byte(v.GetString("log-level")))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	config.LogLevel = level
	config.LogOutput = stderr

	if config.SearchBackend == docgraph.BackendPostgres || config.GraphBackend == docgraph.BackendPostgres {
		config.Database, err = helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, nil, err
		}
	}

	err = config.Validate()
	if err != nil {
		return nil, nil, err
	}

	var logFile *lumberjack.Logger
	if name := v.GetString("log-file"); name != "" {
		logFile = &lumberjack.Logger{
			Filename:   name,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		config.LogOutput = io.MultiWriter(stderr, logFile)
	}

	return config, logFile, nil
}
