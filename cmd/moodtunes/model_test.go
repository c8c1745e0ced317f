package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/go-moodtunes/internal/model"
)

func TestModelPath(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		unset   []string
		want    string
		wantErr bool
	}{
		{
			name: "argument wins",
			args: []string{"custom.msgpack"},
			env:  map[string]string{"MODEL_PATH": "/models/env.msgpack"},
			want: "custom.msgpack",
		},
		{
			name: "MODEL_PATH from config",
			env:  map[string]string{"MODEL_PATH": "/models/env.msgpack"},
			want: "/models/env.msgpack",
		},
		{
			name:  "config default",
			unset: []string{"MODEL_PATH"},
			want:  model.DefaultPath,
		},
		{
			name:    "invalid config",
			env:     map[string]string{"SEARCH_PROVIDER": "napster"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			for _, k := range tt.unset {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}

			got, err := modelPath(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
