package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/ekg-analyzer/internal/loader"
	"github.com/rcliao/ekg-analyzer/internal/store"
)

func init() {
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "EKG test management",
	}

	addCmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Register a recording file as a test of a patient",
		Long:  "Register a tab-separated recording (amplitude mV, time ms) for a patient. The file is validated before it is stored.",
		Args:  cobra.ExactArgs(1),
		Run:   runTestAdd,
	}
	addCmd.Flags().StringP("patient", "p", "", "Patient ID or username (required)")
	addCmd.Flags().String("date", "", "Test date YYYY-MM-DD (default: today)")
	addCmd.Flags().String("comment", "", "Clinician's comment")
	addCmd.MarkFlagRequired("patient")

	listCmd := &cobra.Command{
		Use:   "list [patient]",
		Short: "List the tests of a patient",
		Args:  cobra.ExactArgs(1),
		Run:   runTestList,
	}

	commentCmd := &cobra.Command{
		Use:   "comment [test-id] [text]",
		Short: "Set or clear the comment of a test",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTestComment,
	}

	rmCmd := &cobra.Command{
		Use:   "rm [test-id]",
		Short: "Delete a test and its analyses",
		Args:  cobra.ExactArgs(1),
		Run:   runTestRm,
	}

	testCmd.AddCommand(addCmd, listCmd, commentCmd, rmCmd)
	RootCmd.AddCommand(testCmd)
}

func runTestAdd(cmd *cobra.Command, args []string) {
	patient, _ := cmd.Flags().GetString("patient")
	date, _ := cmd.Flags().GetString("date")
	comment, _ := cmd.Flags().GetString("comment")

	path, err := filepath.Abs(args[0])
	if err != nil {
		exitErr("test add", err)
	}
	// Reject files the analysis could not read later.
	if _, err := loader.Load(path); err != nil {
		exitErr("test add", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	t, err := s.AddTest(cmd.Context(), store.AddTestParams{
		Patient:    patient,
		Date:       date,
		ResultPath: path,
		Comment:    comment,
	})
	if err != nil {
		exitErr("test add", err)
	}
	printJSON(t)
}

func runTestList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	tests, err := s.ListTests(cmd.Context(), args[0])
	if err != nil {
		exitErr("test list", err)
	}

	if textOutput() {
		for _, t := range tests {
			fmt.Printf("%s\t%s\t%s\n", t.ID, t.Date, t.ResultPath)
		}
		return
	}
	printJSON(tests)
}

func runTestComment(cmd *cobra.Command, args []string) {
	comment := strings.TrimSpace(strings.Join(args[1:], " "))
	if comment == "" && len(args) == 1 {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := readAllStdin()
			if err != nil {
				exitErr("read stdin", err)
			}
			comment = strings.TrimSpace(string(b))
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	t, err := s.SetComment(cmd.Context(), args[0], comment)
	if err != nil {
		exitErr("test comment", err)
	}
	printJSON(t)
}

func runTestRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.RmTest(cmd.Context(), args[0]); err != nil {
		exitErr("test rm", err)
	}
	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}
