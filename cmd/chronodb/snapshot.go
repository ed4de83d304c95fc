package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/chronodb/chronodb/internal/catalog"
	"github.com/chronodb/chronodb/internal/config"
	"github.com/chronodb/chronodb/internal/snapshot"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Dump and load catalog snapshots",
	}
	cmd.AddCommand(newSnapshotDumpCmd())
	cmd.AddCommand(newSnapshotLoadCmd())
	return cmd
}

func newSnapshotDumpCmd() *cobra.Command {
	var (
		schemaPath string
		sqlitePath string
		outPath    string
		noCompress bool
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write a catalog snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var contents catalog.Contents
			switch {
			case schemaPath != "":
				schema, err := config.LoadSchema(schemaPath)
				if err != nil {
					return err
				}
				mem, err := config.BuildCatalog(schema)
				if err != nil {
					return err
				}
				contents = mem.Contents()
			case sqlitePath != "":
				db, err := catalog.OpenSQLite(sqlitePath)
				if err != nil {
					return err
				}
				defer db.Close()
				contents, err = db.Contents(cmd.Context())
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("snapshot dump needs --schema or --db")
			}

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()

			var codec snapshot.Codec = &snapshot.LZ4Codec{}
			if noCompress {
				codec = &snapshot.NoneCodec{}
			}
			id, err := snapshot.Write(f, contents, codec)
			if err != nil {
				return err
			}
			level.Info(newLogger()).Log("msg", "snapshot written", "file", outPath,
				"id", id, "hypertables", len(contents.Hypertables), "chunks", len(contents.Chunks))
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "catalog schema file")
	cmd.Flags().StringVar(&sqlitePath, "db", "", "catalog SQLite database")
	cmd.Flags().StringVarP(&outPath, "out", "o", "catalog.csnp", "output snapshot file")
	cmd.Flags().BoolVar(&noCompress, "no-compress", false, "store the payload uncompressed")
	return cmd
}

func newSnapshotLoadCmd() *cobra.Command {
	var (
		inPath     string
		sqlitePath string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a snapshot file into a SQLite catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(inPath)
			if err != nil {
				return err
			}
			defer f.Close()

			contents, id, err := snapshot.Read(f)
			if err != nil {
				return err
			}

			db, err := catalog.OpenSQLite(sqlitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Ingest(cmd.Context(), contents); err != nil {
				return err
			}
			level.Info(newLogger()).Log("msg", "snapshot loaded", "file", inPath,
				"id", id, "hypertables", len(contents.Hypertables), "chunks", len(contents.Chunks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "in", "i", "", "snapshot file")
	cmd.Flags().StringVar(&sqlitePath, "db", "", "target catalog SQLite database")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("db")
	return cmd
}
