package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/ekg-analyzer/internal/model"
	"github.com/rcliao/ekg-analyzer/internal/store"
)

func init() {
	patientCmd := &cobra.Command{
		Use:   "patient",
		Short: "Patient management",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a patient",
		Run:   runPatientAdd,
	}
	addCmd.Flags().String("first", "", "First name (required)")
	addCmd.Flags().String("last", "", "Last name (required)")
	addCmd.Flags().Int("birth-year", 0, "Year of birth")
	addCmd.Flags().String("picture", "", "Path to a picture of the patient")
	addCmd.MarkFlagRequired("first")
	addCmd.MarkFlagRequired("last")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List patients",
		Run:   runPatientList,
	}
	listCmd.Flags().IntP("limit", "l", 100, "Max results")

	getCmd := &cobra.Command{
		Use:   "get [id|username]",
		Short: "Show a patient with tests, age and maximum heart rate",
		Args:  cobra.ExactArgs(1),
		Run:   runPatientGet,
	}

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search patients by name or username",
		Args:  cobra.MinimumNArgs(1),
		Run:   runPatientSearch,
	}
	searchCmd.Flags().IntP("limit", "l", 20, "Max results")

	rmCmd := &cobra.Command{
		Use:   "rm [id|username]",
		Short: "Delete a patient with all tests and analyses",
		Args:  cobra.ExactArgs(1),
		Run:   runPatientRm,
	}

	patientCmd.AddCommand(addCmd, listCmd, getCmd, searchCmd, rmCmd)
	RootCmd.AddCommand(patientCmd)
}

func runPatientAdd(cmd *cobra.Command, args []string) {
	first, _ := cmd.Flags().GetString("first")
	last, _ := cmd.Flags().GetString("last")
	birthYear, _ := cmd.Flags().GetInt("birth-year")
	picture, _ := cmd.Flags().GetString("picture")

	if birthYear != 0 && (birthYear < 1900 || birthYear > time.Now().Year()) {
		exitErr("patient add", fmt.Errorf("birth year %d out of range", birthYear))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.AddPatient(cmd.Context(), store.AddPatientParams{
		Firstname:   first,
		Lastname:    last,
		BirthYear:   birthYear,
		PicturePath: picture,
	})
	if err != nil {
		exitErr("patient add", err)
	}
	printJSON(p)
}

func runPatientList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	patients, err := s.ListPatients(cmd.Context(), store.ListParams{Limit: limit})
	if err != nil {
		exitErr("patient list", err)
	}
	printPatients(patients)
}

func runPatientSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	patients, err := s.SearchPatients(cmd.Context(), store.SearchParams{
		Query: strings.Join(args, " "),
		Limit: limit,
	})
	if err != nil {
		exitErr("patient search", err)
	}
	printPatients(patients)
}

func printPatients(patients []model.Patient) {
	if textOutput() {
		for _, p := range patients {
			fmt.Printf("%s\t%s\t%s\n", p.ID, p.Username, p.Name())
		}
		return
	}
	if patients == nil {
		patients = []model.Patient{}
	}
	printJSON(patients)
}

func runPatientGet(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.GetPatient(cmd.Context(), args[0])
	if err != nil {
		exitErr("patient get", err)
	}
	prof := model.NewProfile(*p, time.Now())

	if !textOutput() {
		printJSON(prof)
		return
	}
	fmt.Printf("%s (%s)\n", prof.Name(), prof.Username)
	if prof.BirthYear > 0 {
		fmt.Printf("born %d, age %d, max heart rate %d bpm\n", prof.BirthYear, prof.Age, prof.MaxHeartRate)
	}
	for _, t := range prof.Tests {
		fmt.Printf("  %s  %s  %s\n", t.ID, t.Date, t.ResultPath)
	}
}

func runPatientRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.RmPatient(cmd.Context(), args[0]); err != nil {
		exitErr("patient rm", err)
	}
	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}
