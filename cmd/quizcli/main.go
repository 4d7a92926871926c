package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"quiz-rag/internal/app"
	"quiz-rag/internal/config"
	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/validation"

	"go.uber.org/zap"
)

type options struct {
	pdf          string
	video        string
	numQuestions int
	userID       string
	apiKey       string
}

func main() {
	var opts options
	flag.StringVar(&opts.pdf, "pdf", "", "path of a PDF to quiz on")
	flag.StringVar(&opts.video, "video", "", "YouTube URL whose transcript to quiz on")
	flag.IntVar(&opts.numQuestions, "n", 5, "number of questions (1-10)")
	flag.StringVar(&opts.userID, "user", "", "save the attempt under this user id")
	flag.StringVar(&opts.apiKey, "api-key", "", "OpenAI API key for this run (defaults to configuration)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Get().Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	if err := run(ctx, a, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		a.Close()
		logger.Sync()
		os.Exit(1)
	}
}

// run drives one ingest, generate, answer and submit cycle on the terminal.
func run(ctx context.Context, a *app.App, opts options, in io.Reader, out io.Writer) error {
	v := validation.NewValidator()
	if errs := v.ValidateNumQuestions(opts.numQuestions); len(errs) > 0 {
		return errs
	}
	if opts.userID != "" {
		if errs := v.ValidateUserID(opts.userID); len(errs) > 0 {
			return errs
		}
	}
	src := domain.Source{Path: opts.pdf, URL: opts.video}
	if err := src.Validate(); err != nil {
		return err
	}

	sess, err := a.Sessions.Create(ctx, opts.apiKey)
	if err != nil {
		return err
	}
	defer a.Sessions.Delete(ctx, sess.ID)

	res, err := a.Ingestion.Ingest(ctx, sess, src, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %q (%d chunks)\n", res.ResourceName, res.ChunkCount)

	generated, err := a.Quizzes.Generate(ctx, sess, opts.numQuestions)
	if err != nil {
		return err
	}
	quiz := generated.Quiz
	if len(quiz.Questions) == 0 {
		return errors.New("the model did not return a usable quiz, try again")
	}

	scanner := bufio.NewScanner(in)
	selections := make([]domain.Selection, len(quiz.Questions))
	for i, q := range quiz.Questions {
		fmt.Fprintf(out, "\nQ%d. %s\n", i+1, q.Question)
		for j, o := range q.Options {
			fmt.Fprintf(out, "  %s) %s\n", domain.OptionLetter(j), o)
		}
		selections[i] = askLetter(scanner, out, q.Options)
	}

	result, err := a.Quizzes.Submit(ctx, sess, opts.userID, quiz.ID, selections)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nScore: %d/%d\n", result.Score, result.Total)
	for _, r := range result.Results {
		mark := "wrong"
		switch {
		case r.Correct:
			mark = "correct"
		case !r.Gradable:
			mark = "ungradable"
		case !r.Answered:
			mark = "unanswered"
		}
		fmt.Fprintf(out, "Q%d %s", r.Index+1, mark)
		if r.CorrectOption != "" && !r.Correct {
			fmt.Fprintf(out, ", answer: %s", r.CorrectOption)
		}
		fmt.Fprintln(out)
		if r.Explanation != "" {
			fmt.Fprintf(out, "   %s\n", r.Explanation)
		}
	}
	switch {
	case result.Warning != "":
		fmt.Fprintf(out, "Warning: %s\n", result.Warning)
	case result.Saved:
		fmt.Fprintf(out, "Saved attempt %s\n", result.AttemptID)
	}
	return nil
}

// askLetter reads answers until a valid letter or a blank line. A blank line
// or end of input leaves the question unanswered.
func askLetter(scanner *bufio.Scanner, out io.Writer, options []string) domain.Selection {
	for {
		fmt.Fprint(out, "Answer (letter, blank to skip): ")
		if !scanner.Scan() {
			return domain.Selection{}
		}
		text := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if text == "" {
			return domain.Selection{}
		}
		for i, o := range options {
			if text == domain.OptionLetter(i) {
				return domain.Select(o)
			}
		}
		fmt.Fprintf(out, "%q is not one of the options\n", text)
	}
}
