package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	grpcapi "social-schema-service/internal/api/grpc"
	"social-schema-service/internal/models"
	"social-schema-service/internal/schema"
	"social-schema-service/internal/store"
)

// errInvalid makes the process exit non-zero after violations are printed.
var errInvalid = errors.New("document does not match its collection schema")

func newCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List the collections and their required fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry()
			if err != nil {
				return err
			}

			type entry struct {
				Name     string   `json:"name"`
				Required []string `json:"required"`
			}
			var entries []entry
			for _, name := range registry.Names() {
				c, _ := registry.Collection(name)
				entries = append(entries, entry{Name: c.Name, Required: c.Required})
			}

			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s required: %s\n", e.Name, strings.Join(e.Required, ", "))
			}
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <collection>",
		Short: "Print the MongoDB $jsonSchema validator of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry()
			if err != nil {
				return err
			}
			c, err := registry.Lookup(args[0])
			if err != nil {
				return err
			}
			return writeExtJSON(cmd.OutOrStdout(), c.ValidatorDocument())
		},
	}
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample <collection>",
		Short: "Print an example document that passes validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := models.Sample(args[0], time.Now())
			if err != nil {
				return err
			}
			return writeExtJSON(cmd.OutOrStdout(), doc)
		},
	}
}

func newValidateCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "validate <collection> [file|-]",
		Short: "Check an Extended JSON document against a collection schema",
		Long: "Check an Extended JSON document against a collection schema.\n" +
			"The document is read from the file argument, or stdin when it is '-' or omitted.\n" +
			"With --addr the check runs on a remote service over gRPC.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			doc, err := readDocument(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			var violations []schema.Violation
			if addr != "" {
				violations, err = validateRemote(cmd.Context(), addr, timeout, args[0], doc)
			} else {
				violations, err = validateLocal(args[0], doc)
			}
			if err != nil {
				return err
			}

			if output == "json" {
				if err := writeJSON(cmd.OutOrStdout(), map[string]any{
					"valid":      len(violations) == 0,
					"violations": violations,
				}); err != nil {
					return err
				}
			} else if len(violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
			} else {
				for _, v := range violations {
					fmt.Fprintln(cmd.OutOrStdout(), v.String())
				}
			}

			if len(violations) > 0 {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "validate remotely against the gRPC service at host:port")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "remote call timeout")
	return cmd
}

func validateLocal(collection string, doc map[string]any) ([]schema.Violation, error) {
	registry, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	err = schema.New(registry).Validate(collection, doc)
	if violations := schema.Violations(err); violations != nil {
		return violations, nil
	}
	return nil, err
}

func validateRemote(ctx context.Context, addr string, timeout time.Duration, collection string, doc map[string]any) ([]schema.Violation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := grpcapi.Dial(addr)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	res, err := client.Validate(ctx, collection, doc)
	if err != nil {
		return nil, err
	}
	return res.Violations, nil
}

func newProvisionCmd() *cobra.Command {
	var (
		uri      string
		database string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the collections in MongoDB and install their validators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := store.Connect(ctx, store.Config{URI: uri, Database: database, Timeout: timeout}, schema.New(registry))
			if err != nil {
				return err
			}
			defer s.Close(context.Background())

			results, err := s.Provision(ctx)
			if err != nil {
				return err
			}

			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", r.Collection, r.Action)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&uri, "mongo-uri", "mongodb://localhost:27017", "MongoDB connection string")
	cmd.Flags().StringVar(&database, "database", "social", "database holding the collections")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "connect and command timeout")
	return cmd
}
