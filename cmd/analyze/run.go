package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
	"github.com/kirillkom/file-analyzer/internal/core/ports"
)

type report struct {
	Filename string `json:"filename" yaml:"filename"`
	FileType string `json:"file_type" yaml:"file_type"`
	Category string `json:"category" yaml:"category"`
	Outcome  string `json:"outcome" yaml:"outcome"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Content  string `json:"content,omitempty" yaml:"content,omitempty"`
	Warning  string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

func newReport(result *domain.AnalysisResult) report {
	return report{
		Filename: result.Filename,
		FileType: result.FileType,
		Category: string(result.Category),
		Outcome:  string(result.Outcome),
		Summary:  result.Summary,
		Content:  result.Content,
		Warning:  result.Warning,
	}
}

func newRunCommand() *cobra.Command {
	var (
		format      string
		showContent bool
	)

	cmd := &cobra.Command{
		Use:   "run <file> [file...]",
		Short: "Analyze one or more files within a single session",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(*cobra.Command, []string) error {
			switch format {
			case "text", "json", "yaml":
				return nil
			default:
				return fmt.Errorf("unknown output format %q", format)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			session, err := app.Sessions.Create(ctx)
			if err != nil {
				return err
			}

			reports := make([]report, 0, len(args))
			failed := 0
			for _, path := range args {
				result, err := analyzePath(cmd, app.Analyzer, session, path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", filepath.Base(path), err)
					continue
				}
				r := newReport(result)
				if !showContent {
					r.Content = ""
				}
				reports = append(reports, r)
			}

			if err := render(cmd.OutOrStdout(), format, reports); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&showContent, "content", false, "include the extracted text in the output")
	return cmd
}

func analyzePath(cmd *cobra.Command, analyzer ports.FileAnalyzer, session *domain.Session, path string) (*domain.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(cmd.Context(), session, domain.UploadedArtifact{
		Name: filepath.Base(path),
		Size: info.Size(),
		Body: f,
	})
}

func render(w io.Writer, format string, reports []report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	default:
		for i, r := range reports {
			if i > 0 {
				fmt.Fprintln(w)
			}
			renderText(w, r)
		}
		return nil
	}
}

func renderText(w io.Writer, r report) {
	fmt.Fprintf(w, "== %s (%s, %s)\n", r.Filename, r.FileType, r.Outcome)
	if r.Warning != "" {
		fmt.Fprintf(w, "warning: %s\n", r.Warning)
	}
	if r.Summary != "" {
		fmt.Fprintln(w, strings.TrimSpace(r.Summary))
	}
	if r.Content != "" {
		fmt.Fprintf(w, "\n--- content ---\n%s\n", strings.TrimSpace(r.Content))
	}
}
