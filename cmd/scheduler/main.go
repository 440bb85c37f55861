package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sma-timetable/scheduler-core/internal/solver"
)

// Exit codes per the CLI contract: 0 success, 2 validation failure
// (including a malformed input file), 3 infeasibility, 4 internal error.
const (
	exitSuccess    = 0
	exitValidation = 2
	exitInfeasible = 3
	exitInternal   = 4
)

var (
	inputPath          string
	outputPath         string
	feasibilityTimeout = 120 * time.Second
	populationSize     = 20
	generations        = 10
	cxProb             = 0.7
	mutProb            = 0.2
	seed               int64 = 1
)

func main() {
	log.SetFlags(0)

	root := &cobra.Command{
		Use:   "scheduler",
		Short: "Timetable solver command line interface",
		Long: "Runs the feasibility search and evolutionary optimizer over a JSON-encoded\n" +
			"set of courses, teachers, rooms, time slots and groups.",
	}

	cmdSolve := &cobra.Command{
		Use:   "solve",
		Short: "solve a timetable and print the resulting schedule as JSON",
		Run:   runSolve,
	}
	cmdSolve.Flags().StringVarP(&inputPath, "input", "i", "", "path to the input JSON file (required)")
	cmdSolve.Flags().StringVarP(&outputPath, "output", "o", "", "path to write the schedule JSON (default: stdout)")
	cmdSolve.Flags().DurationVar(&feasibilityTimeout, "feasibility-timeout", feasibilityTimeout, "time budget for the feasibility search")
	cmdSolve.Flags().IntVar(&populationSize, "population", populationSize, "evolutionary optimizer population size")
	cmdSolve.Flags().IntVar(&generations, "generations", generations, "number of evolutionary generations")
	cmdSolve.Flags().Float64Var(&cxProb, "cx-prob", cxProb, "crossover probability")
	cmdSolve.Flags().Float64Var(&mutProb, "mut-prob", mutProb, "mutation probability")
	cmdSolve.Flags().Int64Var(&seed, "seed", seed, "PRNG seed; identical seed and input always produce identical output")
	_ = cmdSolve.MarkFlagRequired("input")
	root.AddCommand(cmdSolve)

	if err := root.Execute(); err != nil {
		log.Printf("%v", err)
		os.Exit(exitValidation)
	}
}

func runSolve(cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		log.Printf("unknown arguments: %v", args)
		os.Exit(exitValidation)
	}

	in, err := loadInput(inputPath)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(exitValidation)
	}

	courses, teachers, rooms, timeslots, groups := in.toDomain()

	opts := solver.Options{
		FeasibilityTimeout: feasibilityTimeout,
		PopulationSize:     populationSize,
		Generations:        generations,
		CxProb:             cxProb,
		MutProb:            mutProb,
		Seed:               seed,
	}

	result, err := solver.Solve(courses, teachers, rooms, timeslots, groups, opts)
	if err != nil {
		if _, ok := err.(*solver.InfeasibilityError); ok {
			log.Printf("%v", err)
			os.Exit(exitInfeasible)
		}
		log.Printf("%v", err)
		os.Exit(exitInternal)
	}

	out, err := json.MarshalIndent(result.Schedule, "", "  ")
	if err != nil {
		log.Printf("encoding schedule: %v", err)
		os.Exit(exitInternal)
	}

	if outputPath == "" {
		os.Stdout.Write(out)
		os.Stdout.Write([]byte("\n"))
		os.Exit(exitSuccess)
	}

	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		log.Printf("writing %s: %v", outputPath, err)
		os.Exit(exitInternal)
	}

	log.Printf("schedule written to %s (best fitness %.4f, %d generations)", outputPath, result.BestFitness, len(result.FitnessTrace)-1)
	os.Exit(exitSuccess)
}
