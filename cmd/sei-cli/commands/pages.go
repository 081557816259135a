package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(gradesCmd)
}

var scheduleCmd = &cobra.Command{
	Use:     "cronograma",
	Aliases: []string{"schedule"},
	Short:   "Prints the weekly class schedule.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := resolveToken(cmd.Context(), client)
		if err != nil {
			return err
		}
		schedule, err := client.Schedule(cmd.Context(), session)
		if err != nil {
			return err
		}
		if asJson {
			return writeJson(cmd.OutOrStdout(), schedule)
		}
		renderSchedule(cmd.OutOrStdout(), schedule)
		return nil
	},
}

var coursesCmd = &cobra.Command{
	Use:     "materias",
	Aliases: []string{"courses"},
	Short:   "Prints the courses of the current period.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := resolveToken(cmd.Context(), client)
		if err != nil {
			return err
		}
		courses, err := client.Courses(cmd.Context(), session)
		if err != nil {
			return err
		}
		if asJson {
			return writeJson(cmd.OutOrStdout(), courses)
		}
		renderCourses(cmd.OutOrStdout(), courses)
		return nil
	},
}

var gradesCmd = &cobra.Command{
	Use:     "notas",
	Aliases: []string{"grades"},
	Short:   "Prints the grades report.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := resolveToken(cmd.Context(), client)
		if err != nil {
			return err
		}
		grades, err := client.Grades(cmd.Context(), session)
		if err != nil {
			return err
		}
		if asJson {
			return writeJson(cmd.OutOrStdout(), grades)
		}
		renderGrades(cmd.OutOrStdout(), grades)
		return nil
	},
}
