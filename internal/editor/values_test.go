package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffinityOf(t *testing.T) {
	tests := []struct {
		declared string
		want     Affinity
	}{
		{"INTEGER", AffinityInteger},
		{"int", AffinityInteger},
		{"BIGINT", AffinityInteger},
		{"TEXT", AffinityText},
		{"VARCHAR(70)", AffinityText},
		{"CLOB", AffinityText},
		{"BLOB", AffinityBlob},
		{"", AffinityBlob},
		{"REAL", AffinityReal},
		{"DOUBLE PRECISION", AffinityReal},
		{"FLOAT", AffinityReal},
		{"NUMERIC", AffinityNumeric},
		{"DECIMAL(10,5)", AffinityNumeric},
		{"BOOLEAN", AffinityNumeric},
		{"DATE", AffinityNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			assert.Equal(t, tt.want, AffinityOf(tt.declared))
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		raw      string
		want     any
		wantErr  bool
	}{
		{"integer", "INTEGER", "42", int64(42), false},
		{"negative integer", "INTEGER", "-7", int64(-7), false},
		{"integer rejects text", "INTEGER", "forty", nil, true},
		{"integer rejects float", "INTEGER", "1.5", nil, true},
		{"real", "REAL", "3.25", 3.25, false},
		{"real accepts integer form", "REAL", "2", 2.0, false},
		{"real rejects text", "REAL", "pi", nil, true},
		{"numeric integer", "NUMERIC", "10", int64(10), false},
		{"numeric float", "NUMERIC", "10.5", 10.5, false},
		{"numeric rejects text", "NUMERIC", "ten", nil, true},
		{"text", "TEXT", "hello", "hello", false},
		{"text keeps digits as text", "TEXT", "123", "123", false},
		{"empty is null", "TEXT", "", nil, false},
		{"empty integer is null", "INTEGER", "", nil, false},
		{"blob hex literal", "BLOB", "x'deadbeef'", []byte{0xde, 0xad, 0xbe, 0xef}, false},
		{"blob raw bytes", "BLOB", "raw", []byte("raw"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.declared, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
