package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"manara/internal/config"
	"manara/internal/model"
	"manara/internal/repository"
)

// NewSeedCmd builds the CLI subcommand that loads the starter question
// bank. It refuses to touch a non-empty bank.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter question bank into MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	repo := repository.NewQuestionRepo(client.Database(cfg.Mongo.Database))

	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("question bank already has %d questions, refusing to seed", len(existing))
	}

	for _, q := range starterBank() {
		q := q
		if err := repo.Create(ctx, &q); err != nil {
			return fmt.Errorf("failed to insert question %d: %w", q.ID, err)
		}
	}

	log.Printf("Seeded %d questions", len(starterBank()))
	return nil
}

func starterBank() []model.Question {
	return []model.Question{
		{
			ID:            1,
			Prompt:        "What does this code print?",
			Code:          "x = [1, 2, 3]\nprint(x[-1])",
			Options:       []string{"1", "2", "3", "IndexError"},
			CorrectAnswer: "3",
		},
		{
			ID:            2,
			Prompt:        "What is 2 ** 3 in Python?",
			Options:       []string{"6", "8", "9", "23"},
			CorrectAnswer: "8",
		},
		{
			ID:            3,
			Prompt:        "Which data structure works first-in, first-out?",
			Options:       []string{"Stack", "Queue", "Tree", "Heap"},
			CorrectAnswer: "Queue",
		},
		{
			ID:            4,
			Prompt:        "What does this loop output?",
			Code:          "for i in range(3):\n    print(i, end=\"\")",
			Options:       []string{"123", "012", "0123", "111"},
			CorrectAnswer: "012",
		},
		{
			ID:            5,
			Prompt:        "Which sorting algorithm has O(n log n) worst-case time?",
			Options:       []string{"Bubble Sort", "Insertion Sort", "Merge Sort", "Selection Sort"},
			CorrectAnswer: "Merge Sort",
		},
		{
			ID:            6,
			Prompt:        "What is the value of len(\"سلام\")?",
			Options:       []string{"3", "4", "5", "8"},
			CorrectAnswer: "4",
		},
		{
			ID:            7,
			Prompt:        "What does this code print?",
			Code:          "d = {\"a\": 1}\nprint(d.get(\"b\", 0))",
			Options:       []string{"1", "0", "None", "KeyError"},
			CorrectAnswer: "0",
		},
		{
			ID:            8,
			Prompt:        "Which keyword defines a function in Python?",
			Options:       []string{"func", "def", "fn", "lambda"},
			CorrectAnswer: "def",
		},
	}
}
