package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageFor(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{uri: "gs://bucket/out.png", want: "gcs"},
		{uri: "s3://bucket/out.png", want: "s3"},
		{uri: "out/combined.png", want: ""},
		{uri: "https://example.com/out.png", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, storageFor(tt.uri))
		})
	}
}

func TestOpenStorage(t *testing.T) {
	t.Run("未設定ならファクトリは作らないのだ", func(t *testing.T) {
		factory, err := openStorage(context.Background(), "")
		require.NoError(t, err)
		assert.Nil(t, factory)
	})

	t.Run("未知のプロバイダはエラー", func(t *testing.T) {
		_, err := openStorage(context.Background(), "azure")
		assert.ErrorContains(t, err, "azure")
	})
}

func TestWriteOutput(t *testing.T) {
	t.Run("ローカルパスには親ディレクトリを作って書き出すのだ", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "combined.png")

		require.NoError(t, writeOutput(context.Background(), path, []byte("png-bytes"), "image/png"))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(got))
	})
}
