package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var componentCmd = &cobra.Command{
	Use:   "component",
	Short: "List, show and delete stored components",
}

var componentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List components",
	Args:  cobra.NoArgs,
	RunE:  runComponentList,
}

var componentShowCmd = &cobra.Command{
	Use:   "show <component-id>",
	Short: "Show one component",
	Args:  cobra.ExactArgs(1),
	RunE:  runComponentShow,
}

var componentDeleteCmd = &cobra.Command{
	Use:   "delete <component-id>",
	Short: "Delete a component and detach it from every scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runComponentDelete,
}

var componentOwner string

func init() {
	rootCmd.AddCommand(componentCmd)
	componentCmd.AddCommand(componentListCmd)
	componentCmd.AddCommand(componentShowCmd)
	componentCmd.AddCommand(componentDeleteCmd)

	componentListCmd.Flags().StringVar(&componentOwner, "owner", "", "only list components of this owner")
}

func runComponentList(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	list, err := j.ListComponents(cmd.Context(), componentOwner)
	if err != nil {
		return fmt.Errorf("list components: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tFREQUENCY\tSTART\tFORMULA")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Category, c.Frequency, c.StartDate, c.Formula)
	}
	return tw.Flush()
}

func runComponentShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	c, err := j.GetComponent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeYAML(cmd.OutOrStdout(), c)
}

func runComponentDelete(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.DeleteComponent(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted component %s\n", args[0])
	return nil
}
