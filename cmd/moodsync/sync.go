package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/sync"
)

var flagForce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle against the configured bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.engine.PerformSync(cmd.Context(), sync.Options{Force: flagForce})
		if err != nil {
			return err
		}

		fmt.Printf("uploaded %d, downloaded %d, deleted %d local / %d remote\n",
			res.Uploaded, res.Downloaded, res.DeletedLocal, res.DeletedRemote)
		for _, ie := range res.Errors {
			fmt.Printf("  failed: %s\n", ie.Error())
		}
		if len(res.Pending) > 0 {
			fmt.Printf("%d conflict(s) need a decision; run 'moodsync conflicts' to list them\n", len(res.Pending))
		}
		if res.Failed > 0 {
			return fmt.Errorf("sync finished with %d failed item(s)", res.Failed)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local changes pending since the last sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		st, err := a.engine.Status(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "pending uploads:\t%d\n", st.PendingUpload)
		fmt.Fprintf(w, "pending deletes:\t%d\n", st.PendingDeletes)
		fmt.Fprintf(w, "pending conflicts:\t%d\n", st.PendingConflicts)
		if !st.LastSyncedAt.IsZero() {
			fmt.Fprintf(w, "last synced:\t%s (v%d, by %s)\n",
				st.LastSyncedAt.Format("2006-01-02 15:04:05"), st.ManifestVersion, st.LastSyncedDevice)
		} else {
			fmt.Fprintf(w, "last synced:\tnever\n")
		}
		return w.Flush()
	},
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List conflicts waiting for a decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		pending := a.engine.PendingConflicts()
		if len(pending) == 0 {
			fmt.Println("no pending conflicts")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tID\tLOCAL EDIT\tREMOTE EDIT")
		for _, c := range pending {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Type, c.ID,
				c.LocalUpdatedAt.Format("2006-01-02 15:04:05"),
				c.RemoteUpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <id>=<local|remote|skip> ...",
	Short: "Apply decisions for pending conflicts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		choices := map[string]sync.Action{}
		for _, arg := range args {
			id, choice, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("malformed argument %q, want <id>=<local|remote|skip>", arg)
			}
			switch choice {
			case "local":
				choices[id] = sync.ActionLocal
			case "remote":
				choices[id] = sync.ActionRemote
			case "skip":
				choices[id] = sync.ActionSkip
			default:
				return fmt.Errorf("unknown choice %q for %s, want local, remote or skip", choice, id)
			}
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.engine.ResolveConflicts(cmd.Context(), choices)
		if err != nil {
			return err
		}
		fmt.Printf("resolved: %d kept local, %d took remote, %d skipped\n",
			res.Uploaded, res.Downloaded, res.Skipped)
		if len(res.Pending) > 0 {
			fmt.Printf("%d conflict(s) still pending\n", len(res.Pending))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "run the full cycle even when nothing looks changed")
	rootCmd.AddCommand(syncCmd, statusCmd, conflictsCmd, resolveCmd)
}
