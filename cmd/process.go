package cmd

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"squeeze/api/model"
	"squeeze/converter"
)

type processFlags struct {
	outDir       string
	res          string
	quality      int
	typ          string
	profile      string
	parallel     int
	uploadPrefix string
}

func newProcessCmd() *cobra.Command {
	f := &processFlags{}

	cmd := &cobra.Command{
		Use:   "process <src>...",
		Short: "Resize images and compress PDFs in bulk",
		Long: `Each source is detected by content: PDFs go through Ghostscript, images
through ImageMagick. Outputs land in --out with the same base name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			jobs, err := buildJobs(args, f)
			if err != nil {
				return err
			}

			parallel := f.parallel
			if parallel == 0 {
				parallel = app.cfg.Parallel
			}

			results := app.service.ProcessBatch(cmd.Context(), jobs, parallel)

			failed := 0
			for _, res := range results {
				printResult(cmd.OutOrStdout(), res)
				if !res.Success() {
					failed++
					continue
				}
				if f.uploadPrefix != "" {
					key := path.Join(f.uploadPrefix, filepath.Base(res.Destination))
					if err := app.service.Publish(cmd.Context(), key, res.Destination); err != nil {
						return fmt.Errorf("upload %s: %w", res.Destination, err)
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "Output directory (required)")
	cmd.Flags().StringVarP(&f.res, "resolution", "r", "", "Target resolution for images")
	cmd.Flags().IntVarP(&f.quality, "quality", "q", 0, "Output quality for images 1-100")
	cmd.Flags().StringVarP(&f.typ, "type", "t", "", "Output type for images (default: keep source type)")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Distiller profile for PDFs")
	cmd.Flags().IntVarP(&f.parallel, "jobs", "j", 0, "Files processed at once (default PARALLEL)")
	cmd.Flags().StringVar(&f.uploadPrefix, "upload", "", "Upload outputs to the S3 bucket under this prefix")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// buildJobs maps every source to a destination in outDir. PDFs keep the
// pdf type; images take --type when given.
func buildJobs(sources []string, f *processFlags) ([]model.Job, error) {
	if f.outDir == "" {
		return nil, errors.New("output directory is required")
	}

	var target converter.Type
	if f.typ != "" {
		t, err := converter.MakeFromString(f.typ)
		if err != nil {
			return nil, err
		}
		target = t
	}

	jobs := make([]model.Job, 0, len(sources))
	seen := map[string]string{}

	for _, src := range sources {
		ext := filepath.Ext(src)
		base := strings.TrimSuffix(filepath.Base(src), ext)

		srcType, err := converter.FromPath(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}

		jobType := srcType
		if srcType != converter.PDF && target != (converter.Type{}) {
			jobType = target
		}

		dst := filepath.Join(f.outDir, base+jobType.Extension())
		if prev, ok := seen[dst]; ok {
			return nil, fmt.Errorf("%s and %s both write %s", prev, src, dst)
		}
		seen[dst] = src

		jobs = append(jobs, model.Job{
			Source:      src,
			Destination: dst,
			Resolution:  f.res,
			Quality:     f.quality,
			Type:        jobType.String(),
			Profile:     f.profile,
		})
	}

	return jobs, nil
}
