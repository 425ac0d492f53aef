// SPDX-License-Identifier: Apache-2.0

// Command cardio-mcp serves the clinical report extraction pipeline and the
// cardiac risk ensemble: as an MCP server over stdio, as an HTTP API, or as
// a one-shot CLI parse of a text or PDF report.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cardioproj/cardio-mcp/internal/api"
	"github.com/cardioproj/cardio-mcp/internal/config"
	"github.com/cardioproj/cardio-mcp/internal/history"
	"github.com/cardioproj/cardio-mcp/internal/pdftext"
	"github.com/cardioproj/cardio-mcp/internal/report"
	"github.com/cardioproj/cardio-mcp/internal/risk"
	"github.com/cardioproj/cardio-mcp/internal/schema"
	"github.com/cardioproj/cardio-mcp/internal/tool"
)

func main() {
	// Local overrides from a .env file, when present.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cardio-mcp",
		Short:         "Clinical report field extraction and cardiac risk scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMCPCmd(), newServeCmd(), newParseCmd())
	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var w io.Writer = os.Stderr
	if cfg.Log.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mcp.NewServer(&mcp.Implementation{
				Name:    "cardio-mcp",
				Version: api.Version,
			}, nil)

			mcp.AddTool(server, tool.MetadataParseClinicalReport, tool.ParseClinicalReport)
			mcp.AddTool(server, tool.MetadataPredictCardiacRisk, tool.PredictCardiacRisk)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			reg, err := schema.Default()
			if err != nil {
				return err
			}

			store, err := history.NewStore(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("failed to open history store: %w", err)
			}
			defer store.Close()

			logger.Info().
				Int("fields", reg.Len()).
				Str("history_path", cfg.History.Path).
				Msg("starting cardio-mcp")

			srv := api.NewServer(report.NewParser(reg), risk.NewScorer(), store, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, cfg.Server.Addr)
		},
	}
}

func newParseCmd() *cobra.Command {
	var minConfidence string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a clinical report (text or PDF) and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readReport(args[0])
			if err != nil {
				return err
			}

			reg, err := schema.Default()
			if err != nil {
				return err
			}
			result := report.NewParser(reg).Parse(text)

			fields := result.ParsedFields
			if minConfidence != "" {
				fields = report.FilterByConfidence(fields, report.Confidence(minConfidence))
			}

			out := map[string]any{
				"result":   result,
				"formData": report.ConvertToFormData(fields),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&minConfidence, "min-confidence", "", "minimum confidence tier for form data (high, medium, low)")
	return cmd
}

// readReport loads report text from a path ("-" for stdin). PDF files go
// through text-layer extraction first.
func readReport(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		ex, err := pdftext.Extract(f)
		if err != nil {
			return "", fmt.Errorf("failed to extract PDF text: %w", err)
		}
		return ex.Text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
