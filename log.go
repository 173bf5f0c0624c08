package hxgrid

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func logAttrGrid(id string) slog.Attr {
	return slog.String("grid", id)
}

func logAttrFormat(f string) slog.Attr {
	return slog.String("format", f)
}

func logAttrError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}
