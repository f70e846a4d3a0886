package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/file-tools/internal/errs"
)

// WebP encoding goes through libvips: x/image only ships a WebP decoder.

var (
	vipsOnce    sync.Once
	vipsStarted bool
	vipsMu      sync.Mutex
)

// VipsOptions configures the process-wide libvips runtime.
type VipsOptions struct {
	// Concurrency is the libvips worker count; 0 keeps the libvips default.
	Concurrency int

	// Logger receives libvips log output. Nil discards it.
	Logger logrus.FieldLogger
}

// StartVips initialises libvips. It is safe to call more than once; only
// the first call has an effect. Encoding WebP without calling StartVips
// starts libvips with default options.
func StartVips(opts VipsOptions) {
	vipsOnce.Do(func() {
		if opts.Logger != nil {
			log := opts.Logger
			vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
				entry := log.WithField("domain", domain)
				switch level {
				case vips.LogLevelError, vips.LogLevelCritical:
					entry.Error(msg)
				case vips.LogLevelWarning:
					entry.Warn(msg)
				default:
					entry.Debug(msg)
				}
			}, vips.LogLevelWarning)
		} else {
			vips.LoggingSettings(func(string, vips.LogLevel, string) {}, vips.LogLevelError)
		}

		vips.Startup(&vips.Config{ConcurrencyLevel: opts.Concurrency})

		vipsMu.Lock()
		vipsStarted = true
		vipsMu.Unlock()
	})
}

// ShutdownVips releases libvips resources. Call once at process exit.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if vipsStarted {
		vips.Shutdown()
		vipsStarted = false
	}
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	StartVips(VipsOptions{})

	// Hand libvips a lossless PNG so no quality is lost before the WebP pass.
	var src bytes.Buffer
	if err := png.Encode(&src, img); err != nil {
		return nil, errs.Wrap(errs.CategoryEncode, "imaging.webp", fmt.Errorf("failed to stage image: %w", err))
	}

	ref, err := vips.NewImageFromBuffer(src.Bytes())
	if err != nil {
		return nil, errs.Wrap(errs.CategoryEncode, "imaging.webp", err)
	}
	defer ref.Close()

	params := vips.NewWebpExportParams()
	params.Quality = quality
	params.StripMetadata = true

	out, _, err := ref.ExportWebp(params)
	if err != nil {
		return nil, errs.Wrap(errs.CategoryEncode, "imaging.webp", fmt.Errorf("failed to encode webp: %w", err))
	}
	return out, nil
}
