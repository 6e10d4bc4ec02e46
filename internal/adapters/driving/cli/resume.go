package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

// Flags for resume add.
var (
	resumeEpisodeID    int
	resumeEpisode      int
	resumeSeason       int
	resumeFromDownload bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage resume-watching records",
	Long: `Add, remove and list resume-watching records. Removing a record leaves a
tombstone so the deletion reaches other devices.`,
}

var resumeAddCmd = &cobra.Command{
	Use:   "add [parent-id]",
	Short: "Record watch progress for a title",
	Args:  cobra.ExactArgs(1),
	RunE:  runResumeAdd,
}

var resumeRemoveCmd = &cobra.Command{
	Use:     "rm [parent-id]",
	Aliases: []string{"remove"},
	Short:   "Remove watch progress for a title",
	Args:    cobra.ExactArgs(1),
	RunE:    runResumeRemove,
}

var resumeListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List records and tombstones",
	RunE:    runResumeList,
}

func init() {
	resumeAddCmd.Flags().IntVar(&resumeEpisodeID, "episode-id", 0, "episode id")
	resumeAddCmd.Flags().IntVar(&resumeEpisode, "episode", 0, "episode number")
	resumeAddCmd.Flags().IntVar(&resumeSeason, "season", 0, "season number")
	resumeAddCmd.Flags().BoolVar(&resumeFromDownload, "from-download", false, "progress comes from a download")

	resumeCmd.AddCommand(resumeAddCmd)
	resumeCmd.AddCommand(resumeRemoveCmd)
	resumeCmd.AddCommand(resumeListCmd)
	rootCmd.AddCommand(resumeCmd)
}

func parseParentID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("parent id must be a positive integer, got %q", s)
	}
	return id, nil
}

func optionalInt(cmd *cobra.Command, flag string, v int) *int {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}

func runResumeAdd(cmd *cobra.Command, args []string) error {
	if err := requireState(); err != nil {
		return err
	}
	id, err := parseParentID(args[0])
	if err != nil {
		return err
	}
	rec := domain.ResumeRecord{
		ParentID:       id,
		EpisodeID:      optionalInt(cmd, "episode-id", resumeEpisodeID),
		Episode:        optionalInt(cmd, "episode", resumeEpisode),
		Season:         optionalInt(cmd, "season", resumeSeason),
		IsFromDownload: resumeFromDownload,
	}
	return withSession(cmd.Context(), func(ctx context.Context) error {
		if err := stateService.SaveResume(ctx, rec); err != nil {
			return fmt.Errorf("failed to save resume record: %w", err)
		}
		cmd.Printf("Saved progress for %d.\n", id)
		return nil
	})
}

func runResumeRemove(cmd *cobra.Command, args []string) error {
	if err := requireState(); err != nil {
		return err
	}
	id, err := parseParentID(args[0])
	if err != nil {
		return err
	}
	return withSession(cmd.Context(), func(ctx context.Context) error {
		if err := stateService.DeleteResume(ctx, id); err != nil {
			return fmt.Errorf("failed to remove resume record: %w", err)
		}
		cmd.Printf("Removed progress for %d.\n", id)
		return nil
	})
}

func runResumeList(cmd *cobra.Command, _ []string) error {
	if err := requireState(); err != nil {
		return err
	}
	records, tombs, err := stateService.ListResume(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list resume records: %w", err)
	}
	if len(records) == 0 && len(tombs) == 0 {
		cmd.Println("No resume records.")
		return nil
	}

	for _, r := range records {
		line := fmt.Sprintf("%d  updated %s", r.ParentID, formatMillis(r.UpdateTime))
		if r.Season != nil && r.Episode != nil {
			line += fmt.Sprintf("  S%02dE%02d", *r.Season, *r.Episode)
		}
		if r.IsFromDownload {
			line += "  (download)"
		}
		cmd.Println(line)
	}

	ids := make([]int, 0, len(tombs))
	for id := range tombs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		cmd.Printf("%d  deleted %s\n", id, formatMillis(tombs[id]))
	}
	return nil
}

func formatMillis(ms int64) string {
	return formatTime(time.UnixMilli(ms))
}
