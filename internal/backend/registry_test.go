package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuckDBSelfRegistration(t *testing.T) {
	// DuckDB should be auto-registered via init()
	assert.True(t, IsRegistered(EngineDuckDB))
	assert.Contains(t, Engines(), EngineDuckDB)

	factory, ok := Get(EngineDuckDB)
	require.True(t, ok)
	require.NotNil(t, factory)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"duckdb", Config{Engine: EngineDuckDB, Database: ":memory:"}, ""},
		{"missing engine", Config{}, "engine not specified"},
		{"unknown engine", Config{Engine: "oracle"}, `unknown engine "oracle"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Open(context.Background(), tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, b.Close())
		})
	}
}

func TestOpen_UnknownEngineError(t *testing.T) {
	_, err := Open(context.Background(), Config{Engine: "nope"})

	var unknown *UnknownEngineError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Engine)
	assert.Contains(t, unknown.Available, EngineDuckDB)
}
