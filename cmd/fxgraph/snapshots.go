package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/client"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/protocol"
	"github.com/Daniil-Hirchyts/Graph-Algorithms-FX-Arbitrage/pkg/store"
)

var (
	listType     string
	listScenario string
	listLimit    int
	listSince    time.Duration

	createName     string
	createScenario string
	createRandom   bool
	createNodes    int
	createSeed     int64
	createVariance string
	createAnchor   string

	importName string
	outputPath string

	reportFormat string

	snapshotsCmd = &cobra.Command{
		Use:     "snapshots",
		Short:   "Manage stored graph snapshots",
		Aliases: []string{"snap", "s"},
	}
	snapshotsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotsList,
	}
	snapshotsShowCmd = &cobra.Command{
		Use:   "show <id|latest>",
		Short: "Show one snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotsShow,
	}
	snapshotsCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Generate a graph with the algorithm service and store it",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotsCreate,
	}
	snapshotsImportCmd = &cobra.Command{
		Use:   "import <file|->",
		Short: "Import an exported snapshot document",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotsImport,
	}
	snapshotsExportCmd = &cobra.Command{
		Use:   "export <id|latest>",
		Short: "Export a snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotsExport,
	}
	snapshotsLoadCmd = &cobra.Command{
		Use:   "load <id|latest>",
		Short: "Load a snapshot into the session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotsLoad,
	}
	snapshotsDeleteCmd = &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a snapshot",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE:    runSnapshotsDelete,
	}
	snapshotsArchiveCmd = &cobra.Command{
		Use:   "archive <id>",
		Short: "Move a snapshot to the archive",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotsArchive,
	}
	snapshotsArchivedCmd = &cobra.Command{
		Use:   "archived",
		Short: "List archived snapshot keys",
		Args:  cobra.NoArgs,
		RunE:  runSnapshotsArchived,
	}
	snapshotsRestoreCmd = &cobra.Command{
		Use:   "restore <key>",
		Short: "Restore an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runSnapshotsRestore,
	}
	reportCmd = &cobra.Command{
		Use:   "report <snapshots|scenarios>",
		Short: "Download a report as CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	}
)

func init() {
	snapshotsListCmd.Flags().StringVar(&listType, "type", "", "filter by dataset type (random, scenario, custom, import)")
	snapshotsListCmd.Flags().StringVar(&listScenario, "scenario", "", "filter by scenario id")
	snapshotsListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum rows")
	snapshotsListCmd.Flags().DurationVar(&listSince, "since", 0, "only snapshots created within this window")

	snapshotsCreateCmd.Flags().StringVar(&createName, "name", "", "display name")
	snapshotsCreateCmd.Flags().StringVar(&createScenario, "scenario", protocol.DefaultScenario, "catalog scenario to generate")
	snapshotsCreateCmd.Flags().BoolVar(&createRandom, "random", false, "generate a random graph instead of a scenario")
	snapshotsCreateCmd.Flags().IntVar(&createNodes, "nodes", 0, "node count for random graphs")
	snapshotsCreateCmd.Flags().Int64Var(&createSeed, "seed", 0, "seed for random graphs")
	snapshotsCreateCmd.Flags().StringVar(&createVariance, "variance", "", "rate variance for random graphs (low, medium, high)")
	snapshotsCreateCmd.Flags().StringVar(&createAnchor, "anchor", "", "anchor currency")

	snapshotsImportCmd.Flags().StringVar(&importName, "name", "", "override the imported name")
	snapshotsExportCmd.Flags().StringVarP(&outputPath, "out", "o", "", "write to file instead of stdout")

	reportCmd.Flags().StringVar(&reportFormat, "format", "csv", "csv or json")
	reportCmd.Flags().StringVarP(&outputPath, "out", "o", "", "write to file instead of stdout")
	reportCmd.Flags().StringVar(&listType, "type", "", "filter by dataset type")
	reportCmd.Flags().StringVar(&listScenario, "scenario", "", "filter by scenario id")

	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsShowCmd, snapshotsCreateCmd, snapshotsImportCmd,
		snapshotsExportCmd, snapshotsLoadCmd, snapshotsDeleteCmd, snapshotsArchiveCmd,
		snapshotsArchivedCmd, snapshotsRestoreCmd, reportCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshotsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	opts := client.ListOptions{
		DatasetType: store.DatasetType(listType),
		ScenarioID:  listScenario,
		Limit:       listLimit,
	}
	if listSince > 0 {
		opts.From = time.Now().Add(-listSince)
	}
	list, err := newClient().ListSnapshots(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No snapshots.")
		return nil
	}
	fmt.Fprintf(out, "%-40s %-20s %-9s %5s %5s  %s\n", "ID", "NAME", "TYPE", "NODES", "EDGES", "CREATED")
	for _, s := range list {
		fmt.Fprintf(out, "%-40s %-20s %-9s %5d %5d  %s\n",
			s.ID, truncate(s.Name, 20), s.DatasetType, s.NodeCount, s.EdgeCount, humanize.Time(s.CreatedAt))
	}
	return nil
}

func runSnapshotsShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	snap, err := newClient().GetSnapshot(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get snapshot: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, snap)
	}
	writeSnapshot(out, snap)
	return nil
}

func writeSnapshot(w io.Writer, snap *store.Snapshot) {
	fmt.Fprintf(w, "ID:       %s\n", snap.ID)
	fmt.Fprintf(w, "Name:     %s\n", snap.Name)
	fmt.Fprintf(w, "Type:     %s\n", snap.DatasetType)
	if snap.ScenarioID != "" {
		fmt.Fprintf(w, "Scenario: %s\n", snap.ScenarioID)
	}
	fmt.Fprintf(w, "Created:  %s (%s)\n", snap.CreatedAt.Format(time.RFC3339), humanize.Time(snap.CreatedAt))
	fmt.Fprintf(w, "Graph:    %d nodes, %d edges\n", snap.NodeCount, snap.EdgeCount)

	ids := make([]string, 0, len(snap.GraphPayload.Nodes))
	for _, n := range snap.GraphPayload.Nodes {
		ids = append(ids, n.ID)
	}
	fmt.Fprintf(w, "Nodes:    %s\n", strings.Join(ids, " "))
}

func runSnapshotsCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	req := generationRequest(cmd)
	snap, err := newClient().CreateSnapshot(ctx, createName, &req)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, snap.Summary())
	}
	fmt.Fprintf(out, "Created %s (%d nodes, %d edges)\n", snap.ID, snap.NodeCount, snap.EdgeCount)
	return nil
}

// generationRequest maps the create flags onto a service request. Random
// tuning flags are only sent when set.
func generationRequest(cmd *cobra.Command) protocol.GenerationRequest {
	req := protocol.GenerationRequest{
		Mode:       protocol.ModeScenario,
		ScenarioID: createScenario,
		AnchorNode: createAnchor,
	}
	if !createRandom {
		return req
	}
	req.Mode = protocol.ModeRandom
	req.ScenarioID = ""
	params := &protocol.GenerationParams{Variance: createVariance}
	if createNodes > 0 {
		n := createNodes
		params.NumNodes = &n
	}
	if cmd.Flags().Changed("seed") {
		seed := createSeed
		params.Seed = &seed
	}
	req.GenerationParams = params
	return req
}

func runSnapshotsImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		r = f
	}
	snap, err := newClient().ImportSnapshot(ctx, r, importName)
	if err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %q\n", snap.ID, snap.Name)
	return nil
}

func runSnapshotsExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	return withOutput(cmd, func(w io.Writer) error {
		if err := newClient().ExportSnapshot(ctx, args[0], w); err != nil {
			return fmt.Errorf("failed to export snapshot: %w", err)
		}
		return nil
	})
}

// withOutput hands fn the --out file, or stdout when unset.
func withOutput(cmd *cobra.Command, fn func(io.Writer) error) error {
	if outputPath == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runSnapshotsLoad(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	sum, err := newClient().LoadSnapshot(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), sum)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s (%d nodes, %d edges)\n", sum.ID, sum.NodeCount, sum.EdgeCount)
	return nil
}

func runSnapshotsDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := newClient().DeleteSnapshot(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runSnapshotsArchive(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := newClient().ArchiveSnapshot(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to archive snapshot: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archived %s to %s\n", res.SnapshotID, res.Key)
	return nil
}

func runSnapshotsArchived(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	keys, err := newClient().ListArchived(ctx)
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, keys)
	}
	for _, k := range keys {
		fmt.Fprintln(out, k)
	}
	return nil
}

func runSnapshotsRestore(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	sum, err := newClient().RestoreArchived(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", sum.ID)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	body, err := newClient().Report(ctx, args[0], client.ReportOptions{
		Format:      reportFormat,
		DatasetType: store.DatasetType(listType),
		ScenarioID:  listScenario,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch report: %w", err)
	}
	defer body.Close()

	return withOutput(cmd, func(w io.Writer) error {
		n, err := io.Copy(w, body)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if outputPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s\n", humanize.Bytes(uint64(n)), outputPath)
		}
		return nil
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
