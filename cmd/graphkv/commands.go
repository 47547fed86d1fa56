package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jrife/graphkv/config"
	"github.com/jrife/graphkv/graph"
	"github.com/jrife/graphkv/graph/encoding"
	"github.com/jrife/graphkv/graph/mutation"
	"github.com/jrife/graphkv/graph/schema"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/storage/kv/keys"
	"github.com/jrife/graphkv/utils/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type session struct {
	cfg    config.Config
	store  kv.Store
	logger *zap.Logger
}

func (s *session) mutationOptions() []mutation.Option {
	return []mutation.Option{
		mutation.WithLogger(s.logger),
		mutation.WithAutoFlush(s.cfg.AutoFlush),
		mutation.WithDelay(s.cfg.MutationDelay.Duration()),
	}
}

func (s *session) close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("could not close store", zap.Error(err))
	}

	s.logger.Sync()
}

func openSession(configPath string) (*session, error) {
	cfg := config.Default()

	if configPath != "" {
		var err error

		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}

	logger, err := log.New(cfg.Log.Level)

	if err != nil {
		return nil, err
	}

	store, err := cfg.OpenStore()

	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("plugin", cfg.Store.Plugin), zap.String("table", cfg.Table))

	return &session{cfg: cfg, store: store, logger: logger}, nil
}

func newRootCommand(out io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "graphkv",
		Short:        "Inspect and modify a graph stored in a sorted key-value table",
		SilenceUsage: true,
	}

	root.SetOut(out)
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	// withSession opens the configured store around a command
	withSession := func(run func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := openSession(configPath)

			if err != nil {
				return err
			}

			defer s.close()

			ctx := log.WithLogger(cmd.Context(), s.logger)

			return run(ctx, s, cmd, args)
		}
	}

	root.AddCommand(
		tablesCommand(withSession),
		createTableCommand(withSession),
		recreateTableCommand(withSession),
		scanCommand(withSession),
		deleteRowsCommand(withSession),
		addVertexCommand(withSession),
	)

	return root
}

type sessionRunner func(run func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error

func tablesCommand(withSession sessionRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
			tables, err := s.store.Tables().List()

			if err != nil {
				return err
			}

			for _, table := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), table)
			}

			return nil
		}),
	}
}

func tableArg(s *session, args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return s.cfg.Table
}

func createTableCommand(withSession sessionRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "create-table [TABLE]",
		Short: "Create a table unless it exists",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
			return mutation.CreateTableIfNotExists(ctx, s.store.Tables(), tableArg(s, args), mutation.WithLogger(s.logger))
		}),
	}
}

func recreateTableCommand(withSession sessionRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "recreate-table [TABLE]",
		Short: "Delete a table if it exists and create it empty",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
			return mutation.RecreateTable(ctx, s.store.Tables(), tableArg(s, args), mutation.WithLogger(s.logger))
		}),
	}
}

func rowRange(row, prefix string) keys.Range {
	switch {
	case row != "":
		return keys.All().Eq([]byte(row))
	case prefix != "":
		return keys.All().Prefix([]byte(prefix))
	default:
		return keys.All()
	}
}

func scanCommand(withSession sessionRunner) *cobra.Command {
	var row, prefix string
	var families []string
	var limit int
	var recordType string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print the entries of the configured table",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
			options := kv.ScanOptions{Rows: rowRange(row, prefix)}

			for _, family := range families {
				options.Columns = append(options.Columns, kv.Column{Family: []byte(family)})
			}

			scanner, err := s.store.NewScanner(s.cfg.Table, options)

			if err != nil {
				return err
			}

			defer scanner.Close()

			var filtered kv.Scanner = scanner

			if recordType != "" {
				t, err := parseRecordType(recordType)

				if err != nil {
					return err
				}

				filtered = kv.Filter(scanner, func(entry kv.Entry) bool {
					found, err := encoding.RecordTypeOf(entry.Key.Qualifier)

					return err == nil && found == t && isTypedFamily(entry.Key.Family)
				})
			}

			limited := kv.Limit(filtered, limit)

			for limited.Next() {
				fmt.Fprintln(cmd.OutOrStdout(), formatEntry(limited.Entry()))
			}

			return limited.Error()
		}),
	}

	cmd.Flags().StringVar(&row, "row", "", "only scan this row")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only scan rows with this prefix")
	cmd.Flags().StringSliceVar(&families, "family", nil, "only scan these column families")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many entries")
	cmd.Flags().StringVar(&recordType, "type", "", "only print element markers of this record type (VERTEX or EDGE)")

	return cmd
}

func deleteRowsCommand(withSession sessionRunner) *cobra.Command {
	var row, prefix string

	cmd := &cobra.Command{
		Use:   "delete-rows",
		Short: "Delete every entry of a row or of rows with a prefix",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
			if row == "" && prefix == "" {
				return errors.New("one of --row or --prefix is required")
			}

			scanner, err := s.store.NewScanner(s.cfg.Table, kv.ScanOptions{Rows: rowRange(row, prefix)})

			if err != nil {
				return err
			}

			writer, err := s.store.NewBatchWriter(s.cfg.Table, kv.BatchWriterConfig{})

			if err != nil {
				scanner.Close()

				return err
			}

			defer writer.Close()

			deleted, err := mutation.DeleteAllEntries(ctx, scanner, writer, mutation.WithLogger(s.logger))
			scanner.Close()

			if err != nil {
				return err
			}

			if err := mutation.Flush(ctx, writer, mutation.WithLogger(s.logger)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", deleted)

			return nil
		}),
	}

	cmd.Flags().StringVar(&row, "row", "", "row to delete")
	cmd.Flags().StringVar(&prefix, "prefix", "", "delete rows with this prefix")

	return cmd
}

func addVertexCommand(withSession sessionRunner) *cobra.Command {
	var properties []string

	cmd := &cobra.Command{
		Use:   "add-vertex [ID]",
		Short: "Add a vertex, generating an identifier if none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command, args []string) error {
			id := graph.MakeID()

			if len(args) > 0 {
				id = args[0]
			}

			m, err := schema.AddVertex(id)

			if err != nil {
				return err
			}

			mutations := []*kv.Mutation{m}

			for _, property := range properties {
				parts := strings.SplitN(property, "=", 2)

				if len(parts) != 2 {
					return errors.Newf("property %q must look like key=value", property)
				}

				m, err := schema.SetProperty(id, parts[0], parts[1])

				if err != nil {
					return err
				}

				mutations = append(mutations, m)
			}

			writer, err := s.store.NewBatchWriter(s.cfg.Table, kv.BatchWriterConfig{})

			if err != nil {
				return err
			}

			defer writer.Close()

			for _, m := range mutations {
				if err := mutation.AddMutation(ctx, writer, m, s.mutationOptions()...); err != nil {
					return err
				}
			}

			if err := mutation.Flush(ctx, writer, mutation.WithLogger(s.logger)); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)

			return nil
		}),
	}

	cmd.Flags().StringArrayVarP(&properties, "property", "p", nil, "string property as key=value, may be repeated")

	return cmd
}

func parseRecordType(name string) (graph.RecordType, error) {
	for _, t := range graph.RecordTypes() {
		if strings.EqualFold(t.String(), name) {
			return t, nil
		}
	}

	return 0, errors.Newf("unknown record type %q", name)
}

func isTypedFamily(family []byte) bool {
	switch graph.Marker(family) {
	case graph.VertexType, graph.EdgeType:
		return true
	}

	return false
}

// formatEntry renders an entry as row, family, qualifier and value
// separated by tabs. Typed qualifiers and encoded values are decoded
// when possible.
func formatEntry(entry kv.Entry) string {
	qualifier := fmt.Sprintf("%q", entry.Key.Qualifier)

	if isTypedFamily(entry.Key.Family) {
		if t, obj, err := encoding.TextToTypedObject(entry.Key.Qualifier); err == nil {
			qualifier = fmt.Sprintf("%s(%v)", t, obj)
		}
	}

	value := fmt.Sprintf("%q", entry.Value)

	if graph.Marker(entry.Key.Family) == graph.Property {
		if obj, err := encoding.ValueToObject(entry.Value); err == nil {
			value = fmt.Sprintf("%#v", obj)
		}
	}

	return fmt.Sprintf("%s\t%s\t%s\t%s", entry.Key.Row, entry.Key.Family, qualifier, value)
}
