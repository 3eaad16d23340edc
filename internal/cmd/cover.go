package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/animeverse/animeverse/internal/observability"
)

// maxCoverBytes bounds cover downloads.
const maxCoverBytes = 10 << 20

var coverHTTPClient = &http.Client{Timeout: 30 * time.Second}

var coverCmd = &cobra.Command{
	Use:   "cover <provider> <id>",
	Short: "Download cover art as a thumbnail",
	Long:  "Look up a show, download its cover image and write a scaled thumbnail (png/jpeg).",
	Args:  cobra.ExactArgs(2),
	RunE:  runCover,
}

func init() {
	rootCmd.AddCommand(coverCmd)

	coverCmd.Flags().String("out-dir", ".", "Output directory for thumbnails")
	coverCmd.Flags().Int("max-size", 256, "Max thumbnail dimension (64-1024)")
	coverCmd.Flags().String("format", "jpeg", "Thumbnail format: jpeg or png")
	coverCmd.Flags().Int("jpeg-quality", 80, "JPEG quality (1-100)")
	coverCmd.Flags().String("suffix", "cover", "Filename suffix (e.g. 'cover' -> title.cover.jpg)")
}

func runCover(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out-dir")
	maxSize, _ := cmd.Flags().GetInt("max-size")
	format, _ := cmd.Flags().GetString("format")
	jpegQuality, _ := cmd.Flags().GetInt("jpeg-quality")
	suffix, _ := cmd.Flags().GetString("suffix")

	format = strings.ToLower(strings.TrimSpace(format))
	suffix = strings.TrimSpace(suffix)
	if maxSize < 64 || maxSize > 1024 {
		return errors.New("--max-size must be between 64 and 1024")
	}
	switch format {
	case "jpeg", "jpg", "png":
	default:
		return fmt.Errorf("--format must be jpeg or png, got %q", format)
	}
	if suffix == "" {
		suffix = "cover"
	}

	absOut, err := ensureOutDir(outDir)
	if err != nil {
		return err
	}

	detail, err := lookupAnime(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	if strings.TrimSpace(detail.Image) == "" {
		return fmt.Errorf("%s has no cover image", detail.Title)
	}

	src, err := downloadImage(cmd.Context(), detail.Image)
	if err != nil {
		return fmt.Errorf("download cover: %w", err)
	}

	name := sanitizeFilename(detail.Title)
	if name == "output" {
		name = sanitizeFilename(detail.ID)
	}
	outPath := thumbnailPath(absOut, name, suffix, format)
	if err := writeThumbnail(src, outPath, maxSize, format, jpegQuality); err != nil {
		return fmt.Errorf("thumbnail %s: %w", detail.Title, err)
	}

	observability.CLILogger.Info("Wrote cover thumbnail",
		zap.String("path", outPath),
		zap.String("source", detail.Image))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), outPath)
	return err
}

func downloadImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := coverHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxCoverBytes))
	return img, err
}

func thumbnailPath(outDir, base, suffix, format string) string {
	base = strings.TrimSuffix(base, filepath.Ext(base))
	ext := "jpg"
	if format == "png" {
		ext = "png"
	}
	return filepath.Join(outDir, fmt.Sprintf("%s.%s.%s", base, suffix, ext))
}

// scaleToFit shrinks src so its longer side is at most maxSize. Images
// already within bounds keep their size.
func scaleToFit(src image.Image, maxSize int) (*image.RGBA, error) {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid image dimensions")
	}

	scale := float64(maxSize) / float64(max(width, height))
	if scale > 1 {
		scale = 1
	}
	newW := max(int(float64(width)*scale), 1)
	newH := max(int(float64(height)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst, nil
}

func writeThumbnail(src image.Image, outPath string, maxSize int, format string, jpegQuality int) error {
	dst, err := scaleToFit(src, maxSize)
	if err != nil {
		return err
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close() // nolint:errcheck

	return encodeImage(outFile, dst, format, jpegQuality)
}

func encodeImage(w io.Writer, img image.Image, format string, jpegQuality int) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpeg", "jpg", "":
		q := min(max(jpegQuality, 1), 100)
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
