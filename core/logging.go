package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// stdoutOnlyLogDir disables the log file; containers usually collect stdout.
const stdoutOnlyLogDir = "-"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging points the standard logger and gin's access/error writers at
// the same sink: stdout, plus cfg.LogDir/cfg.LogFile unless LogDir is "-".
// Caller should close the returned io.Closer on shutdown.
func SetupLogging(cfg Config) (io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.LogDir != stdoutOnlyLogDir {
		f, err := openLogFile(cfg)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	gin.DefaultWriter = out
	gin.DefaultErrorWriter = out
	return closer, nil
}

func openLogFile(cfg Config) (*os.File, error) {
	dir := firstNonEmpty(cfg.LogDir, "./logs")
	path := filepath.Join(dir, firstNonEmpty(cfg.LogFile, "login.log"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", dir, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
