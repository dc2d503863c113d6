package docgraph

import (
	"testing"

	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Database = &helper.DatabaseConfiguration{Host: "localhost", Port: "5432"}
		return c
	}

	t.Run("Default config with database is valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"Unknown search backend", func(c *Config) { c.SearchBackend = "solr" }},
		{"Unknown graph backend", func(c *Config) { c.GraphBackend = "elastic" }},
		{"Postgres without database", func(c *Config) { c.Database = nil }},
		{"Elastic without address", func(c *Config) {
			c.SearchBackend = BackendElastic
			c.Elastic.Addresses = nil
		}},
		{"Neo4j without URI", func(c *Config) {
			c.GraphBackend = BackendNeo4j
			c.Neo4j.URI = ""
		}},
		{"Remote recognizer without URL", func(c *Config) { c.RecognizerURL = "" }},
		{"Unknown recognizer", func(c *Config) { c.Recognizer = "spacy" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := valid()
			test.modify(c)
			assert.ErrorIs(t, c.Validate(), model.ErrInvalidInput)
		})
	}

	t.Run("Memory backends need no database", func(t *testing.T) {
		c := DefaultConfig()
		c.SearchBackend = BackendMemory
		c.GraphBackend = BackendMemory
		assert.NoError(t, c.Validate())
	})

	t.Run("Hugot needs no URL", func(t *testing.T) {
		c := valid()
		c.Recognizer = RecognizerHugot
		c.RecognizerURL = ""
		assert.NoError(t, c.Validate())
	})
}
