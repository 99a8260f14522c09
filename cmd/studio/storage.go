package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-remote-io/pkg/s3factory"
)

// openStorage は storage.provider に応じたファクトリを作ります。空なら nil を返します。
func openStorage(ctx context.Context, provider string) (remoteio.IOFactory, error) {
	switch provider {
	case "":
		return nil, nil
	case "gcs":
		return gcsfactory.New(ctx)
	case "s3":
		return s3factory.New(ctx)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", provider)
	}
}

// storageFor は URI のスキームからストレージの種類を決めます。ローカルパスなら空です。
func storageFor(uri string) string {
	switch {
	case remoteio.IsGCSURI(uri):
		return "gcs"
	case remoteio.IsS3URI(uri):
		return "s3"
	default:
		return ""
	}
}

// writeOutput は data を uri に書き出します。gs:// と s3:// はそれぞれのストレージへ、
// それ以外はローカルファイルへ書き、親ディレクトリも作成します。
func writeOutput(ctx context.Context, uri string, data []byte, contentType string) error {
	factory, err := openStorage(ctx, storageFor(uri))
	if err != nil {
		return err
	}
	if factory == nil {
		return remoteio.NewUniversalIOWriter(nil, nil).Write(ctx, uri, bytes.NewReader(data), contentType)
	}
	defer factory.Close()

	writer, err := factory.OutputWriter()
	if err != nil {
		return fmt.Errorf("failed to open storage writer: %w", err)
	}
	return writer.Write(ctx, uri, bytes.NewReader(data), contentType)
}
