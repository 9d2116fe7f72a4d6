package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flitsinc/go-jabber/internal/archive"
	"github.com/flitsinc/go-jabber/internal/history"
	"github.com/flitsinc/go-jabber/internal/state"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		account string
		jid     string
		bucket  string
		dir     string
	)

	cmd := &cobra.Command{
		Use:   "export-history",
		Short: "Export a contact's history as gzipped JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if bucket == "" {
				bucket = cfg.Archive.Bucket
			}
			if dir == "" {
				dir = cfg.Archive.Dir
			}

			db, err := state.Open(cfg.Profile.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			var sink archive.Sink = archive.DirSink{Dir: dir}
			where := dir
			if bucket != "" {
				s3Sink, err := archive.NewS3Sink(cmd.Context(), bucket, cfg.Archive.Region)
				if err != nil {
					return err
				}
				sink = s3Sink
				where = "s3://" + bucket
			}

			key, n, err := archive.Export(cmd.Context(), history.NewStore(db), sink, cfg.Archive.Prefix, account, jid, time.Now().UTC())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d lines to %s/%s\n", n, where, key)
			return err
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account name")
	cmd.Flags().StringVar(&jid, "jid", "", "contact bare jid")
	cmd.Flags().StringVar(&bucket, "bucket", "", "upload to this S3 bucket instead of a local directory")
	cmd.Flags().StringVar(&dir, "dir", "", "local export directory (default archive.dir)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("jid")
	return cmd
}
