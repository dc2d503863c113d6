package sql

import (
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFunctions(t *testing.T, db *sql.DB, functions []string) {
	t.Helper()
	for _, funcName := range functions {
		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "Function %s should exist", funcName)
	}
}

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pg_trgm extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		err = Init(db.Instance)
		assert.NoError(t, err)
	})
}

func TestLoadDocumentsSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load documents SQL functions", func(t *testing.T) {
		err := LoadDocumentsSql(db.Instance, false)
		assert.NoError(t, err)
		requireFunctions(t, db.Instance, DocumentsFunctions)
	})

	t.Run("Load documents SQL is idempotent without force", func(t *testing.T) {
		err := LoadDocumentsSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("Load documents SQL with force reloads", func(t *testing.T) {
		err := LoadDocumentsSql(db.Instance, true)
		assert.NoError(t, err)
		requireFunctions(t, db.Instance, DocumentsFunctions)
	})
}

func TestLoadEntitiesSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load entities SQL functions", func(t *testing.T) {
		err := LoadEntitiesSql(db.Instance, false)
		assert.NoError(t, err)
		requireFunctions(t, db.Instance, EntitiesFunctions)
	})

	t.Run("Load entities SQL is idempotent without force", func(t *testing.T) {
		err := LoadEntitiesSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("Load entities SQL with force reloads", func(t *testing.T) {
		err := LoadEntitiesSql(db.Instance, true)
		assert.NoError(t, err)
	})
}

func TestLoadEdgesSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load edges SQL functions", func(t *testing.T) {
		err := LoadEdgesSql(db.Instance, false)
		assert.NoError(t, err)
		requireFunctions(t, db.Instance, EdgesFunctions)
	})

	t.Run("Load edges SQL with force reloads", func(t *testing.T) {
		err := LoadEdgesSql(db.Instance, true)
		assert.NoError(t, err)
	})
}

func TestLoadAllSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Load all SQL functions", func(t *testing.T) {
		err := LoadAllSql(db.Instance, false)
		assert.NoError(t, err)

		requireFunctions(t, db.Instance, DocumentsFunctions)
		requireFunctions(t, db.Instance, EntitiesFunctions)
		requireFunctions(t, db.Instance, EdgesFunctions)
	})

	t.Run("Load all SQL is idempotent without force", func(t *testing.T) {
		err := LoadAllSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("Load all SQL with force reloads", func(t *testing.T) {
		err := LoadAllSql(db.Instance, true)
		assert.NoError(t, err)
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Check functions returns false when functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for nonexistent function")
	})

	t.Run("Check functions returns true when all functions exist", func(t *testing.T) {
		err := LoadEntitiesSql(db.Instance, false)
		require.NoError(t, err)

		exists, err := checkFunctions(db.Instance, EntitiesFunctions)
		assert.NoError(t, err)
		assert.True(t, exists, "Should return true when all functions exist")
	})

	t.Run("Check functions returns false when some functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"init_entities", "nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false when some functions don't exist")
	})

	t.Run("Check functions with empty list", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for empty function list")
	})
}

func TestEmbeddedSQL(t *testing.T) {
	t.Run("Init SQL is embedded", func(t *testing.T) {
		assert.Contains(t, initSQL, "CREATE EXTENSION", "Should contain CREATE EXTENSION")
	})

	t.Run("Every listed function is defined in its embedded file", func(t *testing.T) {
		files := map[string][]string{
			documentsSQL: DocumentsFunctions,
			entitiesSQL:  EntitiesFunctions,
			edgesSQL:     EdgesFunctions,
		}
		for content, functions := range files {
			for _, f := range functions {
				assert.Contains(t, content, "FUNCTION "+f+"(", "Function %s should be defined", f)
			}
		}
	})

	t.Run("Documents SQL uses the english text search configuration", func(t *testing.T) {
		assert.Contains(t, documentsSQL, "to_tsvector('english'")
		assert.Contains(t, documentsSQL, "ON CONFLICT (path) DO UPDATE")
	})
}
