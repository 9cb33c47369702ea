package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"social-schema-service/internal/schema"
)

const defaultTimeout = 10 * time.Second

var (
	schemaFile string
	output     string
)

// newRootCmd returns the root command for schemactl.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "schemactl",
		Short:         "Inspect, render and check the social collection schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema-file", "", "YAML collection table (default: embedded table)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "output format: json|text")

	rootCmd.AddCommand(newCollectionsCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newProvisionCmd())

	return rootCmd
}

func loadRegistry() (*schema.Registry, error) {
	if schemaFile == "" {
		return schema.Default()
	}
	return schema.LoadFile(schemaFile)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeExtJSON prints v as indented relaxed Extended JSON.
func writeExtJSON(w io.Writer, v any) error {
	out, err := bson.MarshalExtJSONIndent(v, false, false, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// readDocument reads one Extended JSON document from path, or from in
// when path is "-" or empty.
func readDocument(in io.Reader, path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
