package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/netconflate/internal/layer"
	"github.com/sells-group/netconflate/internal/network"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Manage stored line layers",
	Long:  "Commands for importing, exporting, listing, and removing the line layers the other commands read and write.",
}

// -- layers import --

var layersImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a shapefile or GeoJSON file as a layer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("layers"); err != nil {
			return err
		}

		file, _ := cmd.Flags().GetString("file")
		name, _ := cmd.Flags().GetString("name")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		if name == "" {
			name = layerNameFromPath(file)
		}

		n, err := readLayerFile(file, name)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := checkOutput(ctx, st, name, overwrite); err != nil {
			return err
		}
		if err := st.Put(ctx, n); err != nil {
			return eris.Wrap(err, "layers import")
		}

		zap.L().Info("layer imported",
			zap.String("command", "layers import"),
			zap.String("layer", name),
			zap.String("file", file),
			zap.Int("features", n.Len()),
		)
		return nil
	},
}

// -- layers export --

var layersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a layer to a shapefile or GeoJSON file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("layers"); err != nil {
			return err
		}

		file, _ := cmd.Flags().GetString("file")
		name, _ := cmd.Flags().GetString("name")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := loadLayer(ctx, st, name)
		if err != nil {
			return err
		}
		if err := writeLayerFile(file, n); err != nil {
			return err
		}

		zap.L().Info("layer exported",
			zap.String("command", "layers export"),
			zap.String("layer", name),
			zap.String("file", file),
			zap.Int("features", n.Len()),
		)
		return nil
	},
}

// -- layers list --

var layersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored layers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("layers"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		infos, err := st.List(ctx)
		if err != nil {
			return eris.Wrap(err, "layers list")
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No layers found.")
			return nil
		}

		formatLayerList(cmd.OutOrStdout(), infos)
		return nil
	},
}

// -- layers remove --

var layersRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a stored layer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("layers"); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Delete(ctx, name); err != nil {
			return eris.Wrap(err, "layers remove")
		}
		zap.L().Info("layer removed", zap.String("command", "layers remove"), zap.String("layer", name))
		return nil
	},
}

func init() {
	layersImportCmd.Flags().String("file", "", "shapefile (.shp) or GeoJSON (.geojson, .json) to import")
	layersImportCmd.Flags().String("name", "", "layer name (default: file name without extension)")
	layersImportCmd.Flags().Bool("overwrite", false, "replace the layer if it exists")
	_ = layersImportCmd.MarkFlagRequired("file")

	layersExportCmd.Flags().String("name", "", "layer name")
	layersExportCmd.Flags().String("file", "", "output shapefile (.shp) or GeoJSON (.geojson, .json)")
	_ = layersExportCmd.MarkFlagRequired("name")
	_ = layersExportCmd.MarkFlagRequired("file")

	layersRemoveCmd.Flags().String("name", "", "layer name")
	_ = layersRemoveCmd.MarkFlagRequired("name")

	layersCmd.AddCommand(layersImportCmd)
	layersCmd.AddCommand(layersExportCmd)
	layersCmd.AddCommand(layersListCmd)
	layersCmd.AddCommand(layersRemoveCmd)
	rootCmd.AddCommand(layersCmd)
}

func layerNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readLayerFile picks the reader from the file extension.
func readLayerFile(path, name string) (*network.Network, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return layer.ReadShapefile(path, name)
	case ".geojson", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return layer.ReadGeoJSON(f, name)
	default:
		return nil, eris.Errorf("unsupported layer file %s (want .shp, .geojson or .json)", path)
	}
}

// writeLayerFile picks the writer from the file extension.
func writeLayerFile(path string, n *network.Network) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return layer.WriteShapefile(path, n)
	case ".geojson", ".json":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		if err := layer.WriteGeoJSON(f, n); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		return eris.Wrapf(f.Close(), "close %s", path)
	default:
		return eris.Errorf("unsupported layer file %s (want .shp, .geojson or .json)", path)
	}
}

// formatLayerList writes a tabular list of layers to w.
func formatLayerList(out io.Writer, infos []layer.Info) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tFEATURES\tUPDATED")
	_, _ = fmt.Fprintln(w, "----\t--------\t-------")
	for _, info := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", info.Name, info.Features, info.UpdatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}
