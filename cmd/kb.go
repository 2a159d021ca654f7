package main

import (
	"fmt"
	"io"
	"strings"

	"core_innovators/internal/knowledge"
	"core_innovators/internal/service"

	"github.com/spf13/cobra"
)

var kbLimit int

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Browse the knowledge base",
	Long: `Browse the embedded knowledge base.

Subcommands:
  categories        - List categories and subcategories
  search <query>    - Rank entries against a question
  show <id>         - Print one entry
  related <id>      - Entries sharing its category and subcategory`,
	RunE: runKBCategories,
}

var kbCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories",
	RunE:  runKBCategories,
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runKBSearch,
}

var kbShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBShow,
}

var kbRelatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "Entries related to one entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBRelated,
}

func init() {
	kbCmd.PersistentFlags().IntVarP(&kbLimit, "limit", "n", service.DefaultSearchLimit, "Maximum results")
	kbCmd.AddCommand(kbCategoriesCmd, kbSearchCmd, kbShowCmd, kbRelatedCmd)
}

func knowledgeService() (*service.KnowledgeService, error) {
	store, err := knowledge.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	return service.NewKnowledgeService(knowledge.NewMatcher(store)), nil
}

func runKBCategories(cmd *cobra.Command, _ []string) error {
	kb, err := knowledgeService()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, c := range kb.Categories() {
		fmt.Fprintf(out, "%s %-16s %s\n", c.Icon, c.ID, c.Description)
		if len(c.Subcategories) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(c.Subcategories, ", "))
		}
	}
	return nil
}

func runKBSearch(cmd *cobra.Command, args []string) error {
	kb, err := knowledgeService()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	matches := kb.Search(strings.Join(args, " "), kbLimit)
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matching entries.")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "[%3d] %-14s %s\n", m.Score, m.Entry.ID, m.Entry.Question)
	}
	return nil
}

func runKBShow(cmd *cobra.Command, args []string) error {
	kb, err := knowledgeService()
	if err != nil {
		return err
	}
	e, err := kb.Entry(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", err, args[0])
	}
	printEntry(cmd.OutOrStdout(), e)
	return nil
}

func runKBRelated(cmd *cobra.Command, args []string) error {
	kb, err := knowledgeService()
	if err != nil {
		return err
	}
	entries, err := kb.Related(args[0], kbLimit)
	if err != nil {
		return fmt.Errorf("%w: %s", err, args[0])
	}
	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%-14s %s\n", e.ID, e.Question)
	}
	return nil
}

func printEntry(w io.Writer, e knowledge.QAPair) {
	fmt.Fprintf(w, "%s  (%s/%s, priority %d)\n", e.ID, e.Category, e.Subcategory, e.Priority)
	fmt.Fprintf(w, "Q: %s\n", e.Question)
	fmt.Fprintf(w, "A: %s\n", e.Answer)
	if len(e.Keywords) > 0 {
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(e.Keywords, ", "))
	}
}
