package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tztw/projectmap/internal/archive"
	"github.com/tztw/projectmap/internal/backup"
	"github.com/tztw/projectmap/internal/catalog/access"
	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/export"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill empty collections with the bundled dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.store.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded users=%d types=%d projects=%d\n", res.Users, res.Types, res.Projects)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Upsert projects from a JSON export",
		Long: `Reads a JSON array of projects, as written by "tztwctl export json" or the
web client, and stores every record verbatim. Existing ids are overwritten.`,
		Example: `  tztwctl import tztw_data_2024-03-05.json
  cat backup.json | tztwctl import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			projects, err := export.DecodeProjects(r)
			if err != nil {
				return err
			}
			created, err := a.store.SaveProjects(context.WithoutCancel(cmd.Context()), projects)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d projects (%d new, %d updated)\n", len(projects), created, len(projects)-created)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		out        string
		title      string
		permission string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an export of every project",
	}

	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Export all projects as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.store.GetProjects(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, func(w io.Writer) error {
				return export.JSON(w, projects)
			})
		},
	}

	htmlCmd := &cobra.Command{
		Use:   "html",
		Short: "Export all projects as a standalone HTML page",
		Example: `  tztwctl export html --permission guest --title 成都考察 --out share.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !access.ValidPermission(permission) {
				return fmt.Errorf("--permission must be %q or %q", domain.PermissionAdmin, domain.PermissionGuest)
			}
			projects, err := a.store.GetProjects(cmd.Context())
			if err != nil {
				return err
			}
			types, err := a.store.GetProjectTypes(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				out = export.StandaloneFilename(title, permission, a.now())
			}
			return writeOutput(cmd, out, func(w io.Writer) error {
				return export.Standalone(w, export.StandaloneInput{
					Title:      title,
					Permission: permission,
					Projects:   projects,
					Types:      types,
					At:         a.now(),
				})
			})
		},
	}
	htmlCmd.Flags().StringVar(&title, "title", "", "page title")
	htmlCmd.Flags().StringVar(&permission, "permission", domain.PermissionGuest, "audience: admin or guest")

	cmd.PersistentFlags().StringVarP(&out, "out", "o", "", "output file (default stdout for json)")
	cmd.AddCommand(jsonCmd, htmlCmd)
	return cmd
}

// writeOutput streams to path, or stdout when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "wrote", path)
	return nil
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all projects without --yes")
			}
			n, err := a.store.CountProjects(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.store.ClearProjects(context.WithoutCancel(cmd.Context())); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d projects\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write one backup to the configured archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.Open(cmd.Context(), &a.cfg.Archive)
			if err != nil {
				return err
			}
			info, err := backup.NewScheduler(a.store, store, nil, nil).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %s (%d bytes)\n", info.Key, info.Size)
			return nil
		},
	}
}
