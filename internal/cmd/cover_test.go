package cmd

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animeverse/animeverse/internal/core"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestScaleToFit(t *testing.T) {
	dst, err := scaleToFit(image.NewRGBA(image.Rect(0, 0, 1000, 500)), 200)
	require.NoError(t, err)
	require.Equal(t, 200, dst.Bounds().Dx())
	require.Equal(t, 100, dst.Bounds().Dy())

	small, err := scaleToFit(image.NewRGBA(image.Rect(0, 0, 50, 80)), 200)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 50, 80), small.Bounds())

	_, err = scaleToFit(image.NewRGBA(image.Rect(0, 0, 0, 0)), 200)
	require.Error(t, err)
}

func TestThumbnailPath(t *testing.T) {
	require.Equal(t, "/out/frieren.cover.jpg", thumbnailPath("/out", "frieren", "cover", "jpeg"))
	require.Equal(t, "/out/name.thumbnail.png", thumbnailPath("/out", "name.jpeg", "thumbnail", "png"))
}

func TestEncodeImageRejectsUnknownFormat(t *testing.T) {
	require.Error(t, encodeImage(&bytes.Buffer{}, image.NewRGBA(image.Rect(0, 0, 1, 1)), "bmp", 80))
}

func TestDownloadImage(t *testing.T) {
	body := pngBytes(t, 40, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	img, err := downloadImage(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	require.Equal(t, 40, img.Bounds().Dx())

	_, err = downloadImage(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
}

func TestCoverCommandWritesThumbnail(t *testing.T) {
	body := pngBytes(t, 600, 900)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	useCatalog(t, &stubCatalog{detail: &core.AnimeDetail{Anime: core.Anime{
		ID: "sousou-no-frieren", Provider: "gogoanime", Title: "Sousou no Frieren", Image: srv.URL + "/cover.png",
	}}})

	outDir := t.TempDir()
	out, err := runCLI(t, "cover", "gogoanime", "sousou-no-frieren", "--out-dir", outDir, "--max-size", "300", "--format", "png")
	require.NoError(t, err)

	want := filepath.Join(outDir, "sousou-no-frieren.cover.png")
	require.Equal(t, want, strings.TrimSpace(out))

	f, err := os.Open(want)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	require.Equal(t, 200, cfg.Width)
	require.Equal(t, 300, cfg.Height)
}

func TestCoverCommandRejectsFormatBeforeDownload(t *testing.T) {
	var downloads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		_, _ = w.Write(pngBytes(t, 10, 10))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = coverCmd.Flags().Set("format", "jpeg") })

	useCatalog(t, &stubCatalog{detail: &core.AnimeDetail{Anime: core.Anime{
		ID: "frieren", Provider: "gogoanime", Title: "Frieren", Image: srv.URL + "/cover.png",
	}}})

	outDir := t.TempDir()
	_, err := runCLI(t, "cover", "gogoanime", "frieren", "--out-dir", outDir, "--format", "gif")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--format")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Zero(t, downloads.Load())
}
