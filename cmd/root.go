// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/config"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/dlog"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/report"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/scan"
)

// Exit codes
const (
	ExitOK          = 0
	ExitError       = 1
	ExitNoCodes     = 2
	ExitUnsupported = 3
)

// ExitCodeError carries the process exit status out of a command.
type ExitCodeError struct {
	Code    int
	Message string
}

func (e *ExitCodeError) Error() string {
	return e.Message
}

var rootCmd = &cobra.Command{
	Use:   "azul-plugin-qrcode [flags] <file>...",
	Short: "Detect and decode QR codes in images and documents",
	Long: `Detects and decodes QR codes embedded in images, office documents, PDFs
and emails, and prints the decoded payloads with the feature values an azul
host records for them (qr_code_data_raw, qr_code_uri, qr_code_email, ...).

Exit status: 0 codes found, 1 error, 2 no QR code found, 3 unsupported file type.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDecode,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode reports err on stderr unless it only carries a status.
func exitCode(err error) int {
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintln(os.Stderr, exitErr.Message)
		}
		return exitErr.Code
	}
	fmt.Fprintln(os.Stderr, err)
	return ExitError
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format: text, json or yaml")
	rootCmd.PersistentFlags().StringP("file-type", "t", "", "force an azul file format instead of sniffing content")
	rootCmd.PersistentFlags().IntP("max-images", "m", 100, "maximum images processed per file")
	rootCmd.PersistentFlags().IntP("max-value-length", "L", 4000, "truncate feature values longer than this")
	rootCmd.PersistentFlags().IntP("workers", "j", 4, "images decoded concurrently")
	rootCmd.PersistentFlags().StringP("extract-dir", "x", "", "write binary payloads and full texts to this directory")
	rootCmd.PersistentFlags().StringP("log-level", "l", "warn", "log level: debug, info, warn, error or none")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagKeys maps flag names onto config keys.
var flagKeys = map[string]string{
	"output":           "output",
	"file-type":        "file_type",
	"max-images":       "max_images",
	"max-value-length": "max_value_length",
	"workers":          "workers",
	"extract-dir":      "extract_dir",
	"log-level":        "log_level",
	"debug":            "debug",
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Bound here rather than in init so a viper.Reset keeps the flags wired
	for name, key := range flagKeys {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	maxFileSize, err := settings.MaxFileSizeBytes()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := dlog.GetLogger(settings.EffectiveLogLevel())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	fs := afero.NewOsFs()
	scanner, err := scan.New(scan.Config{
		FileType:       settings.FileType,
		MaxImages:      settings.MaxImages,
		Workers:        settings.Workers,
		MaxValueLength: settings.MaxValueLength,
		MaxFileSize:    maxFileSize,
	}, fs, logger)
	if err != nil {
		return fmt.Errorf("scanner: %w", err)
	}

	code := ExitOK
	files := make([]report.File, 0, len(args))
	for _, path := range args {
		res, scanErr := scanner.ScanFile(cmd.Context(), path)
		if errors.Is(scanErr, context.Canceled) {
			return scanErr
		}
		fileCode := fileExitCode(scanErr)
		if fileCode == ExitError {
			// Keep hard failures visible outside machine readable output
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", scanErr)
		}
		code = max(code, fileCode)

		f := report.FromResult(path, res, scanErr)
		if res != nil && settings.ExtractDir != "" {
			written, err := report.WriteArtifacts(fs, settings.ExtractDir, res)
			if err != nil {
				logger.Error("writing artifacts failed", zap.String("path", path), zap.Error(err))
				code = max(code, ExitError)
			}
			f.Artifacts = written
		}
		files = append(files, f)
	}

	if err := report.Write(cmd.OutOrStdout(), settings.Output, files); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if code != ExitOK {
		return &ExitCodeError{Code: code}
	}
	return nil
}

func fileExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, scan.ErrNoCodes):
		return ExitNoCodes
	case errors.Is(err, scan.ErrUnsupported):
		return ExitUnsupported
	default:
		return ExitError
	}
}
