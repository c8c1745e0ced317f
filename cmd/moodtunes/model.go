package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/justestif/go-moodtunes/internal/cnn"
	"github.com/justestif/go-moodtunes/internal/config"
	"github.com/justestif/go-moodtunes/internal/emotion"
	"github.com/justestif/go-moodtunes/internal/model"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Create and inspect emotion model files",
}

var modelInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a new untrained emotion model",
	Long: `Write a new untrained emotion model with randomly initialized weights.

The file is only useful as a placeholder until trained weights are dropped
in its place.

Example:
  moodtunes model init emotion_model.msgpack --seed 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModelInit,
}

var modelInspectCmd = &cobra.Command{
	Use:   "inspect [path]",
	Short: "Print the layers of an emotion model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelInspect,
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelInitCmd)
	modelCmd.AddCommand(modelInspectCmd)

	modelInitCmd.Flags().Bool("force", false, "Overwrite an existing model file")
	modelInitCmd.Flags().Int64("seed", 0, "Weight initialization seed (default: current time)")
}

// modelPath returns the path argument, or MODEL_PATH from the loaded
// configuration when none is given.
func modelPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.ModelPath, nil
}

func runModelInit(cmd *cobra.Command, args []string) error {
	path, err := modelPath(args)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	seed, _ := cmd.Flags().GetInt64("seed")
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	net, err := model.Create(path, emotion.LabelNames(), seed)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%d parameters)\n", path, net.Params())
	return nil
}

func runModelInspect(cmd *cobra.Command, args []string) error {
	path, err := modelPath(args)
	if err != nil {
		return err
	}

	net, err := cnn.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	fmt.Printf("Model:  %s\n", path)
	fmt.Printf("Input:  %s\n", net.InputShape())
	fmt.Printf("Labels: %v\n\n", net.Labels())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tLAYER\tOUTPUT\tPARAMS")
	for i, l := range net.Summary() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i+1, l.Kind, l.Output, l.Params)
	}
	w.Flush()

	fmt.Printf("\nTotal parameters: %d\n", net.Params())

	if err := model.Validate(net, emotion.LabelNames()); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}
	return nil
}
