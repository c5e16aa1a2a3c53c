package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lecturelab/examgen/internal/model"
)

const defaultConvertTimeout = time.Minute

// Converter normalizes a legacy .ppt deck into the modern format by
// invoking an external conversion utility. One attempt per call;
// transient failures surface to the caller unmasked.
type Converter struct {
	command string
	timeout time.Duration
}

// NewConverter creates a converter around the given binary, typically
// "soffice". A non-positive timeout falls back to the default.
func NewConverter(command string, timeout time.Duration) *Converter {
	if timeout <= 0 {
		timeout = defaultConvertTimeout
	}
	return &Converter{command: command, timeout: timeout}
}

// Convert writes data to a scratch file, runs the converter against it,
// and returns the converted bytes. The external process is bounded by
// the configured timeout.
func (c *Converter) Convert(ctx context.Context, data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "examgen-convert-*")
	if err != nil {
		return nil, model.E(model.KindConversion, "create scratch directory", err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "deck.ppt")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, model.E(model.KindConversion, "write scratch file", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.command, "--headless", "--convert-to", "pptx", "--outdir", dir, src)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, model.Errf(model.KindConversion, "converter timed out after %s", c.timeout)
		}
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = "converter failed"
		} else {
			detail = fmt.Sprintf("converter failed: %s", detail)
		}
		return nil, model.E(model.KindConversion, detail, err)
	}

	converted, err := os.ReadFile(filepath.Join(dir, "deck.pptx"))
	if err != nil {
		return nil, model.E(model.KindConversion, "read converter output", err)
	}
	return converted, nil
}
