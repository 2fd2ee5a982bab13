package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/requirements"
)

var (
	profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "Generate, show and edit requirement profiles",
	}

	profileGenerateCmd = &cobra.Command{
		Use:   "generate <job title>",
		Short: "Generate a weighted requirement profile for a job title",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, config := setup()
			defer l.Sync()

			jobTitle := strings.Join(args, " ")
			output, _ := cmd.Flags().GetString("output")
			model, _ := cmd.Flags().GetString("model")

			gen, err := newGenerator(cmd.Context(), config.AI, model, true, l)
			if err != nil {
				l.Fatal("failed to create text generator", zap.Error(err))
			}

			log := logger.WithFields(l, zap.String(logger.FieldJob, jobTitle))
			builder := requirements.NewBuilder(gen, config.AI.MaxLogLength, log)

			profile, err := builder.Generate(cmd.Context(), jobTitle)
			if err != nil {
				log.Fatal("failed to generate requirement profile", zap.Error(err))
			}

			if output == "" {
				output = profileFileName(profile.JobTitle)
			}
			if err := requirements.Save(output, profile); err != nil {
				log.Fatal("failed to save requirement profile", zap.Error(err))
			}

			log.Info("requirement profile saved", zap.String("path", output), zap.Int("items", len(profile.Items)))
			printProfile(profile)
		},
	}

	profileShowCmd = &cobra.Command{
		Use:   "show <file>",
		Short: "Print a requirement profile",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			l, _ := setup()
			defer l.Sync()

			profile, err := loadProfile(args[0], l)
			if err != nil {
				l.Fatal("failed to read requirement profile", zap.Error(err))
			}
			printProfile(profile)
		},
	}

	profileEditCmd = &cobra.Command{
		Use:   "edit <file>",
		Short: "Interactively edit a requirement profile",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, _ := setup()
			defer l.Sync()

			path := args[0]
			profile, err := loadProfile(path, l)
			if err != nil {
				l.Fatal("failed to read requirement profile", zap.Error(err))
			}

			saved, err := editProfile(cmd.Context(), profile)
			if err != nil {
				l.Fatal("profile editing aborted", zap.Error(err))
			}
			if !saved {
				l.Info("changes discarded")
				return
			}

			if err := requirements.Save(path, profile); err != nil {
				l.Fatal("failed to save requirement profile", zap.Error(err))
			}
			l.Info("requirement profile saved", zap.String("path", path), zap.Int("items", len(profile.Items)))
		},
	}
)

func init() {
	profileGenerateCmd.Flags().StringP("output", "o", "", "where to write the profile (.json, .yaml or .yml); defaults to <job title>_requirements.json")
	profileGenerateCmd.Flags().String("model", "", "override the configured model")

	profileCmd.AddCommand(profileGenerateCmd, profileShowCmd, profileEditCmd)
	rootCmd.AddCommand(profileCmd)
}

func profileFileName(jobTitle string) string {
	name := strings.ToLower(strings.Join(strings.Fields(jobTitle), "_"))
	if name == "" {
		name = "profile"
	}
	return name + "_requirements.json"
}

func printProfile(profile *requirements.Profile) {
	fmt.Printf("Job: %s\n", profile.JobTitle)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, cat := range requirements.Categories {
		items := profile.ByCategory(cat)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\t\n", cat.ExchangeName())
		for _, item := range items {
			fmt.Fprintf(w, "  %s\t%.2f\n", item.Label, item.Weight)
		}
	}
	w.Flush()
}

const (
	actionAdd     = "Add item"
	actionSet     = "Change item"
	actionRemove  = "Remove item"
	actionRename  = "Rename job"
	actionShow    = "Show profile"
	actionSave    = "Save and exit"
	actionDiscard = "Exit without saving"
)

// editProfile runs the interactive edit loop. It reports whether the profile should be saved.
func editProfile(ctx context.Context, profile *requirements.Profile) (bool, error) {
	actions := []string{actionAdd, actionSet, actionRemove, actionRename, actionShow, actionSave, actionDiscard}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		prompt := promptui.Select{
			Label: fmt.Sprintf("Editing %q", profile.JobTitle),
			Items: actions,
			Size:  len(actions),
		}
		_, action, err := prompt.Run()
		if err != nil {
			return false, err
		}

		switch action {
		case actionAdd:
			err = addItem(profile)
		case actionSet:
			err = changeItem(profile)
		case actionRemove:
			err = removeItem(profile)
		case actionRename:
			err = renameJob(profile)
		case actionShow:
			printProfile(profile)
		case actionSave:
			return true, nil
		case actionDiscard:
			return false, nil
		}

		// A rejected edit leaves the profile untouched.
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, err
		}
		if err != nil {
			fmt.Printf("Change rejected: %v\n", err)
		}
	}
}

func addItem(profile *requirements.Profile) error {
	cat, err := selectCategory()
	if err != nil {
		return err
	}
	label, err := promptText("Label", "")
	if err != nil {
		return err
	}
	weight, err := promptWeight("0.5")
	if err != nil {
		return err
	}
	return profile.AddItem(requirements.Item{Label: label, Weight: weight, Category: cat})
}

func changeItem(profile *requirements.Profile) error {
	item, err := selectItem(profile)
	if err != nil {
		return err
	}
	label, err := promptText("Label", item.Label)
	if err != nil {
		return err
	}
	weight, err := promptWeight(strconv.FormatFloat(item.Weight, 'f', -1, 64))
	if err != nil {
		return err
	}
	return profile.SetItem(item.Category, item.Label, requirements.Item{Label: label, Weight: weight, Category: item.Category})
}

func removeItem(profile *requirements.Profile) error {
	item, err := selectItem(profile)
	if err != nil {
		return err
	}
	return profile.RemoveItem(item.Category, item.Label)
}

func renameJob(profile *requirements.Profile) error {
	title, err := promptText("Job title", profile.JobTitle)
	if err != nil {
		return err
	}
	return profile.RenameJob(title)
}

func selectCategory() (requirements.Category, error) {
	names := make([]string, 0, len(requirements.Categories))
	for _, cat := range requirements.Categories {
		names = append(names, cat.ExchangeName())
	}

	prompt := promptui.Select{Label: "Category", Items: names}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return requirements.Categories[idx], nil
}

func selectItem(profile *requirements.Profile) (requirements.Item, error) {
	if len(profile.Items) == 0 {
		return requirements.Item{}, requirements.ErrItemNotFound
	}

	labels := make([]string, 0, len(profile.Items))
	for _, item := range profile.Items {
		labels = append(labels, fmt.Sprintf("%s: %s (%.2f)", item.Category.ExchangeName(), item.Label, item.Weight))
	}

	prompt := promptui.Select{Label: "Item", Items: labels, Size: 10}
	idx, _, err := prompt.Run()
	if err != nil {
		return requirements.Item{}, err
	}
	return profile.Items[idx], nil
}

func promptText(label, value string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: value,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return requirements.ErrEmptyLabel
			}
			return nil
		},
	}
	out, err := prompt.Run()
	return strings.TrimSpace(out), err
}

func promptWeight(value string) (float64, error) {
	prompt := promptui.Prompt{
		Label:   "Weight (0-1)",
		Default: value,
		Validate: func(s string) error {
			w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return errors.New("weight must be a number")
			}
			if w < 0 || w > 1 {
				return requirements.ErrWeightOutOfRange
			}
			return nil
		},
	}
	out, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(out), 64)
}
